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

// Package erc20 is a thin adapter over the standard ERC-20 methods and
// events, built entirely on pkg/codec with a pre-declared ABI - it does no
// systems work of its own, it just saves callers from hand-typing the ABI
// JSON for one of the most common contract interfaces.
package erc20

import (
	"context"
	"encoding/json"

	"github.com/kaleido-io/evmabi/pkg/abi"
	"github.com/kaleido-io/evmabi/pkg/codec"
)

const abiJSON = `[
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
		"name": "approve",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "balanceOf",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
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

// Codec returns a *codec.Codec pre-loaded with the standard ERC-20 ABI.
func Codec() (*codec.Codec, error) {
	return CodecCtx(context.Background())
}

func CodecCtx(ctx context.Context) (*codec.Codec, error) {
	var a abi.ABI
	if err := json.Unmarshal([]byte(abiJSON), &a); err != nil {
		return nil, err
	}
	return codec.NewCtx(ctx, a)
}

// EncodeTransfer builds call data for transfer(address,uint256).
func EncodeTransfer(c *codec.Codec, to string, amount string) ([]byte, error) {
	return c.EncodeFunction("transfer", []interface{}{to, amount})
}

// EncodeApprove builds call data for approve(address,uint256).
func EncodeApprove(c *codec.Codec, spender string, amount string) ([]byte, error) {
	return c.EncodeFunction("approve", []interface{}{spender, amount})
}

// EncodeBalanceOf builds call data for balanceOf(address).
func EncodeBalanceOf(c *codec.Codec, account string) ([]byte, error) {
	return c.EncodeFunction("balanceOf", []interface{}{account})
}

// DecodeBalanceOfResult decodes the return value of balanceOf(address) - a
// single uint256, returned as a decimal string.
func DecodeBalanceOfResult(c *codec.Codec, data []byte) (string, error) {
	result, err := c.DecodeFunctionResult("balanceOf", data)
	if err != nil {
		return "", err
	}
	v, _ := result.Get("field0")
	return v.(string), nil
}

// DecodeTransferLog decodes a Transfer event log into (from, to, value).
func DecodeTransferLog(c *codec.Codec, record codec.LogRecord) (from, to, value string, err error) {
	decoded, err := c.DecodeLog(record)
	if err != nil {
		return "", "", "", err
	}
	fromVal, _ := decoded.Values.Get("from")
	toVal, _ := decoded.Values.Get("to")
	valueVal, _ := decoded.Values.Get("value")
	return fromVal.(string), toVal.(string), valueVal.(string), nil
}
