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

package codec

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaleido-io/evmabi/pkg/abi"
	"github.com/kaleido-io/evmabi/pkg/ethtypes"
)

const erc20ABI = `[
	{
		"type": "function",
		"name": "transfer",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "balanceOf",
		"stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "event",
		"name": "Transfer",
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256", "indexed": false}
		]
	}
]`

func loadCodec(t *testing.T) *Codec {
	var a abi.ABI
	assert.NoError(t, json.Unmarshal([]byte(erc20ABI), &a))
	c, err := New(a)
	assert.NoError(t, err)
	return c
}

// word builds a 32-byte big-endian word from a trailing hex value,
// left-padding with zeros - the layout a uint256, address, or bool occupies.
func word(hexValue string) []byte {
	padded := strings.Repeat("0", 64-len(hexValue)) + hexValue
	b, _ := hex.DecodeString(padded)
	return b
}

func TestCodecEncodeDecodeFunctionByName(t *testing.T) {
	c := loadCodec(t)
	callData, err := c.EncodeFunction("transfer", []interface{}{
		"0x0000000000000000000000000000000000000001",
		"100",
	})
	assert.NoError(t, err)

	decoded, err := c.DecodeFunction("transfer", callData)
	assert.NoError(t, err)
	to, _ := decoded.Get("to")
	assert.Equal(t, "0x0000000000000000000000000000000000000001", to)
}

func TestCodecEncodeDecodeFunctionBySelector(t *testing.T) {
	c := loadCodec(t)
	callData, err := c.EncodeFunction("transfer", []interface{}{
		"0x0000000000000000000000000000000000000001",
		"100",
	})
	assert.NoError(t, err)
	selector := hex.EncodeToString(callData[0:4])

	decoded, err := c.DecodeFunction(selector, callData)
	assert.NoError(t, err)
	amount, _ := decoded.Get("amount")
	assert.Equal(t, "100", amount)

	decoded2, err := c.DecodeFunction("0x"+strings.ToUpper(selector), callData)
	assert.NoError(t, err)
	amount2, _ := decoded2.Get("amount")
	assert.Equal(t, "100", amount2)
}

func TestCodecDecodeFunctionResult(t *testing.T) {
	c := loadCodec(t)
	result, err := c.DecodeFunctionResult("balanceOf", word("64"))
	assert.NoError(t, err)
	v, ok := result.Get("field0")
	assert.True(t, ok)
	assert.Equal(t, "100", v)
}

func TestCodecFunctionNotFound(t *testing.T) {
	c := loadCodec(t)
	_, err := c.EncodeFunction("doesNotExist", nil)
	assert.ErrorContains(t, err, "FF23020")
}

func TestCodecKnownEventTopics(t *testing.T) {
	c := loadCodec(t)
	topics := c.KnownEventTopics()
	assert.Len(t, topics, 1)
	assert.Len(t, topics[0], 32)
}

func TestCodecDecodeLog(t *testing.T) {
	c := loadCodec(t)
	a := c.abiDef
	transferEvent := a.Events()["Transfer"]
	topic0, err := transferEvent.EventTopic0()
	assert.NoError(t, err)

	addr := ethtypes.MustNewAddress("0x0000000000000000000000000000000000000009")
	record := LogRecord{
		Address: addr,
		Topics: []ethtypes.HexBytes0xPrefix{
			topic0,
			word("1111111111111111111111111111111111111111"),
			word("2222222222222222222222222222222222222222"),
		},
		Data: word("64"),
	}

	decoded, err := c.DecodeLog(record)
	assert.NoError(t, err)
	assert.Equal(t, "Transfer", decoded.EventName)
	value, _ := decoded.Values.Get("value")
	assert.Equal(t, "100", value)
}

func TestCodecDecodeLogsSkipsUnknownTopic(t *testing.T) {
	// spec.md S7: a log whose topics[0] is not a known event topic is
	// silently skipped, the rest of the batch still decodes.
	c := loadCodec(t)
	a := c.abiDef
	transferEvent := a.Events()["Transfer"]
	topic0, err := transferEvent.EventTopic0()
	assert.NoError(t, err)

	known := LogRecord{
		Topics: []ethtypes.HexBytes0xPrefix{
			topic0,
			word("1111111111111111111111111111111111111111"),
			word("2222222222222222222222222222222222222222"),
		},
		Data: word("64"),
	}
	unknown := LogRecord{
		Topics: []ethtypes.HexBytes0xPrefix{
			word("deadbeef"),
		},
		Data: word("1"),
	}

	decoded := c.DecodeLogs([]LogRecord{unknown, known, unknown})
	assert.Len(t, decoded, 1)
	assert.Equal(t, "Transfer", decoded[0].EventName)
}

func TestCodecDecodeLogNoTopics(t *testing.T) {
	c := loadCodec(t)
	_, err := c.DecodeLog(LogRecord{})
	assert.ErrorContains(t, err, "FF23064")
}
