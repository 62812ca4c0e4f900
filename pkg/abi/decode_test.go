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

package abi

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	assert.NoError(t, err)
	return b
}

func TestDecodeNegativeAndUnsignedInt256(t *testing.T) {
	// spec.md S4: 32 bytes of 0xff decodes to -1 as int256, 2^256-1 as uint256
	word := mustDecodeHex(t, strings.Repeat("ff", 32))

	paInt := ParameterArray{{Name: "v", Type: "int256"}}
	decoded, err := paInt.DecodeABIData(word)
	assert.NoError(t, err)
	v, _ := decoded.Get("v")
	assert.Equal(t, "-1", v)

	paUint := ParameterArray{{Name: "v", Type: "uint256"}}
	decoded, err = paUint.DecodeABIData(word)
	assert.NoError(t, err)
	v, _ = decoded.Get("v")
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", v)
}

func TestDecodeTruncatedInput(t *testing.T) {
	pa := ParameterArray{{Name: "v", Type: "uint256"}}
	_, err := pa.DecodeABIData([]byte{0x01, 0x02})
	assert.ErrorContains(t, err, "FF23060")
}

func TestDecodeOffsetOutOfRange(t *testing.T) {
	pa := ParameterArray{{Name: "s", Type: "string"}}
	// head points far beyond the buffer
	data := mustDecodeHex(t, "00000000000000000000000000000000000000000000000000000000000fffff")
	_, err := pa.DecodeABIData(data)
	assert.Error(t, err)
}

func TestDecodeArrayLengthExceedsInput(t *testing.T) {
	pa := ParameterArray{{Name: "a", Type: "uint256[]"}}
	// offset 0x20, then a length claim far larger than remaining input
	data := mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			strings.Repeat("ff", 32))
	_, err := pa.DecodeABIData(data)
	assert.ErrorContains(t, err, "FF23053")
}

func TestDecodeInvalidUTF8String(t *testing.T) {
	pa := ParameterArray{{Name: "s", Type: "string"}}
	data := mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000002"+
			"ff00000000000000000000000000000000000000000000000000000000000000")
	_, err := pa.DecodeABIData(data)
	assert.ErrorContains(t, err, "FF23080")
}

func TestDecodeBoolTruthyNonzero(t *testing.T) {
	pa := ParameterArray{{Name: "b", Type: "bool"}}
	word := make([]byte, 32)
	word[0] = 0x01 // not the canonical low-byte-only encoding
	decoded, err := pa.DecodeABIData(word)
	assert.NoError(t, err)
	v, _ := decoded.Get("b")
	assert.Equal(t, true, v)
}

func TestDecodeAddressLowercase(t *testing.T) {
	pa := ParameterArray{{Name: "addr", Type: "address"}}
	word := mustDecodeHex(t, strings.Repeat("00", 12)+"AbCdEf0123456789aBcDeF0123456789aBcDeF01")
	decoded, err := pa.DecodeABIData(word)
	assert.NoError(t, err)
	v, _ := decoded.Get("addr")
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", v)
}

func TestDecodeFixedBytes(t *testing.T) {
	pa := ParameterArray{{Name: "h", Type: "bytes4"}}
	word := mustDecodeHex(t, "deadbeef00000000000000000000000000000000000000000000000000000000")
	decoded, err := pa.DecodeABIData(word)
	assert.NoError(t, err)
	v, _ := decoded.Get("h")
	assert.Equal(t, "0xdeadbeef", v)
}

func TestDecodeEmptyInputYieldsEmptyResult(t *testing.T) {
	pa := ParameterArray{}
	decoded, err := pa.DecodeABIData([]byte{})
	assert.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
}
