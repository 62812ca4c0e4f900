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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeInt256NegativeOne(t *testing.T) {
	// spec.md S4: int256(-1) encodes to 32 bytes of 0xff
	b := SerializeInt256TwosComplementBytes(big.NewInt(-1))
	assert.Equal(t, "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", hex.EncodeToString(b))
}

func TestParseInt256NegativeOne(t *testing.T) {
	allFF, _ := hex.DecodeString("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	i := ParseInt256TwosComplementBytes(allFF)
	assert.Equal(t, big.NewInt(-1).String(), i.String())
}

func TestParseInt256Positive(t *testing.T) {
	b := make([]byte, 32)
	b[31] = 0x2a
	i := ParseInt256TwosComplementBytes(b)
	assert.Equal(t, "42", i.String())
}

func TestSerializeParseRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -42, 1<<40 - 1, -(1 << 40)} {
		b := SerializeInt256TwosComplementBytes(big.NewInt(v))
		got := ParseInt256TwosComplementBytes(b)
		assert.Equal(t, big.NewInt(v).String(), got.String())
	}
}

func TestCheckSignedIntFits(t *testing.T) {
	assert.True(t, checkSignedIntFits(big.NewInt(127), 8))
	assert.False(t, checkSignedIntFits(big.NewInt(128), 8))
	assert.True(t, checkSignedIntFits(big.NewInt(-128), 8))
	assert.False(t, checkSignedIntFits(big.NewInt(-129), 8))
}
