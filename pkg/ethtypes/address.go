// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ethtypes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Address0xHex is a 20-byte EVM address. It always formats with a lowercase
// "0x" prefix - no EIP-55 checksum is computed or validated. Any casing is
// accepted on input.
type Address0xHex [20]byte

// AddressPlainHex is the same 20 bytes, formatted without the "0x" prefix.
type AddressPlainHex Address0xHex

func (a *Address0xHex) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return a.SetString(s)
}

func (a *Address0xHex) SetString(s string) error {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("bad address: %s", err)
	}
	if len(b) != 20 {
		return fmt.Errorf("bad address - must be 20 bytes (len=%d)", len(b))
	}
	copy(a[0:20], b)
	return nil
}

func (a Address0xHex) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, a.String())), nil
}

func (a Address0xHex) String() string {
	return "0x" + hex.EncodeToString(a[0:20])
}

// Equals does a case-insensitive-by-construction comparison, since an
// Address0xHex is always normalized to lowercase bytes on parse.
func (a Address0xHex) Equals(b Address0xHex) bool {
	return a == b
}

func (a *AddressPlainHex) UnmarshalJSON(b []byte) error {
	return ((*Address0xHex)(a)).UnmarshalJSON(b)
}

func (a AddressPlainHex) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, a.String())), nil
}

func (a AddressPlainHex) String() string {
	return hex.EncodeToString(a[0:20])
}

func NewAddress(s string) (*Address0xHex, error) {
	a := new(Address0xHex)
	return a, a.SetString(s)
}

func MustNewAddress(s string) *Address0xHex {
	a, err := NewAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
