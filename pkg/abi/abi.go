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

/*

The abi package implements the Ethereum Contract ABI: a deterministic binary
format used to call smart contracts and interpret their return values and
event logs.

A high level summary of the API is as follows:

                         [ ABI ]        - parse your ABI definition, using the Go model of the JSON format
                            ↓
                        (validate)      - all types in functions, events and errors are parsed into a type tree
                            ↓
                [ TypeComponent tree ]  - the tree of all the arrays/tuples/elementary components
                            ↓
    args []interface{} →  (encode)      - native Go values are laid out into the head/tail binary format
                            ↓
                  [ ABI encoded bytes ] - so you can use these bytes to invoke EVM functions
                            ↓
                         (decode)       - decode ABI bytes from function outputs, or logs (event data)
                            ↓
                    [ *OrderedMap ]     - a field-order-preserving decoded value tree

Example:

	transferABI := `[
		{
			"inputs": [
				{"internalType": "address", "name": "recipient", "type": "address"},
				{"internalType": "uint256", "name": "amount", "type": "uint256"}
			],
			"name": "transfer",
			"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`

	var abi ABI
	_ = json.Unmarshal([]byte(transferABI), &abi)
	f := abi.Functions()["transfer"]

	callData, _ := f.EncodeCallData([]interface{}{
		"0x03706Ff580119B130E7D26C5e816913123C24d89",
		"1000000000000000000",
	})
	fmt.Println(hex.EncodeToString(callData))

	decoded, _ := f.DecodeCallData(callData)
	jsonData, _ := json.Marshal(decoded)
	fmt.Println(string(jsonData))
*/
package abi

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
)

// ABI "Application Binary Interface" is a list of the methods and events
// on the external interface of an EVM based smart contract - written in
// Solidity / Vyper.
//
// It is structured as a JSON array of ABI entries, each of which can be
// a function, event or error definition.
type ABI []*Entry

// EntryType is an enum of the possible ABI entry types
type EntryType string

const (
	Function    EntryType = "function"    // A function/method of the smart contract
	Constructor EntryType = "constructor" // The constructor
	Receive     EntryType = "receive"     // The "receive Ether" function
	Fallback    EntryType = "fallback"    // The default function to invoke
	Event       EntryType = "event"       // An event the smart contract can emit
	Error       EntryType = "error"       // An error definition
)

type StateMutability string

const (
	Pure       StateMutability = "pure"       // Specified not to read blockchain state
	View       StateMutability = "view"       // Specified not to modify the blockchain state (read-only)
	Payable    StateMutability = "payable"    // The function accepts ether
	NonPayable StateMutability = "nonpayable" // The function does not accept ether
)

type ParameterArray []*Parameter

// Entry is an individual entry in an ABI - a function, event or error.
//
// Defines the name / inputs / outputs which can be used to generate the
// signature of the function/event, and used to encode input data, or decode
// output data.
type Entry struct {
	Type            EntryType       `json:"type,omitempty"`
	Name            string          `json:"name,omitempty"`
	Payable         bool            `json:"payable,omitempty"`
	Constant        bool            `json:"constant,omitempty"`
	Anonymous       bool            `json:"anonymous,omitempty"`
	StateMutability StateMutability `json:"stateMutability,omitempty"`
	Inputs          ParameterArray  `json:"inputs"`
	Outputs         ParameterArray  `json:"outputs"`
}

// Parameter is an individual typed parameter input/output
type Parameter struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	InternalType string         `json:"internalType,omitempty"`
	Components   ParameterArray `json:"components,omitempty"`
	Indexed      bool           `json:"indexed,omitempty"`

	parsed *typeComponent // cached components, built on first Validate/parse
}

func (e *Entry) IsFunction() bool {
	switch e.Type {
	case Function, Constructor, Receive, Fallback:
		return true
	default:
		return false
	}
}

// Validate processes all the components of all the entries in this ABI, to
// build the type tree and catch any AbiParseError eagerly.
func (a ABI) Validate() (err error) {
	return a.ValidateCtx(context.Background())
}

func (a ABI) ValidateCtx(ctx context.Context) (err error) {
	for _, e := range a {
		if err := e.ValidateCtx(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Functions indexes the ABI by function name. Where multiple functions share
// a name (overloads), one of them wins - callers that care about overloads
// must index by selector instead.
func (a ABI) Functions() map[string]*Entry {
	m := make(map[string]*Entry)
	for _, e := range a {
		if e.Name != "" && e.IsFunction() {
			m[e.Name] = e
		}
	}
	return m
}

// Events indexes the ABI by event name, with the same overload caveat as Functions.
func (a ABI) Events() map[string]*Entry {
	m := make(map[string]*Entry)
	for _, e := range a {
		if e.Name != "" && e.Type == Event {
			m[e.Name] = e
		}
	}
	return m
}

// Validate processes all the components of all the parameters in this ABI entry
func (e *Entry) Validate() (err error) {
	return e.ValidateCtx(context.Background())
}

func (e *Entry) ValidateCtx(ctx context.Context) (err error) {
	for _, input := range e.Inputs {
		if err := input.ValidateCtx(ctx); err != nil {
			return err
		}
	}
	for _, output := range e.Outputs {
		if err := output.ValidateCtx(ctx); err != nil {
			return err
		}
	}
	return nil
}

// String returns the signature string. If parsing fails the error is logged
// but not returned - use Signature/SignatureCtx if you need the error.
func (e *Entry) String() string {
	s, err := e.Signature()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
	}
	return s
}

func (e *Entry) Signature() (string, error) {
	return e.SignatureCtx(context.Background())
}

func (e *Entry) SignatureCtx(ctx context.Context) (string, error) {
	buff := new(strings.Builder)
	buff.WriteString(e.Name)
	buff.WriteRune('(')
	for i, p := range e.Inputs {
		if i > 0 {
			buff.WriteRune(',')
		}
		s, err := p.SignatureStringCtx(ctx)
		if err != nil {
			return "", err
		}
		buff.WriteString(s)
	}
	buff.WriteRune(')')
	return buff.String(), nil
}

// GenerateID returns the function selector (4 bytes) for functions/errors, or
// the full event topic0 (32 bytes) for events - spec.md §3 "Selectors".
func (e *Entry) GenerateID() ([]byte, error) {
	return e.GenerateIDCtx(context.Background())
}

func (e *Entry) GenerateIDCtx(ctx context.Context) ([]byte, error) {
	sig, err := e.SignatureCtx(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := hashSignatureCtx(ctx, sig)
	if err != nil {
		return nil, err
	}
	if e.Type == Event {
		return hash, nil
	}
	return hash[0:4], nil
}

// ID is a convenience function to get the ID as a hex string (no 0x prefix),
// returning the empty string on failure.
func (e *Entry) ID() string {
	id, err := e.GenerateID()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
		return ""
	}
	return hex.EncodeToString(id)
}

// FunctionSelectorCtx is GenerateIDCtx's meaning for a Function/Constructor/
// Fallback/Receive entry - always the first 4 bytes.
func (e *Entry) FunctionSelectorCtx(ctx context.Context) ([]byte, error) {
	id, err := e.GenerateIDCtx(ctx)
	if err != nil {
		return nil, err
	}
	if len(id) > 4 {
		return id[0:4], nil
	}
	return id, nil
}

// EventTopic0 is EventTopic0Ctx using a background context.
func (e *Entry) EventTopic0() ([]byte, error) {
	return e.EventTopic0Ctx(context.Background())
}

// EventTopic0Ctx is GenerateIDCtx's meaning for an Event entry - the full
// 32-byte keccak256 of the canonical signature. Anonymous events still have a
// topic0, it is just not emitted as topics[0] on chain - spec.md §4.2.
func (e *Entry) EventTopic0Ctx(ctx context.Context) ([]byte, error) {
	sig, err := e.SignatureCtx(ctx)
	if err != nil {
		return nil, err
	}
	return hashSignatureCtx(ctx, sig)
}

// EncodeCallData serializes args (positional, matching Inputs) prefixed with
// the function selector - spec.md §4.6 "encode_function".
func (e *Entry) EncodeCallData(args []interface{}) ([]byte, error) {
	return e.EncodeCallDataCtx(context.Background(), args)
}

func (e *Entry) EncodeCallDataCtx(ctx context.Context, args []interface{}) ([]byte, error) {
	id, err := e.GenerateIDCtx(ctx)
	if err != nil {
		return nil, err
	}
	argData, err := e.Inputs.EncodeABIDataCtx(ctx, args)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(id)+len(argData))
	copy(data, id)
	copy(data[len(id):], argData)
	return data, nil
}

// DecodeCallData verifies the leading 4-byte selector and decodes the
// remaining bytes against Inputs - spec.md §4.6 "decode_function".
func (e *Entry) DecodeCallData(b []byte) (*OrderedMap, error) {
	return e.DecodeCallDataCtx(context.Background(), b)
}

func (e *Entry) DecodeCallDataCtx(ctx context.Context, b []byte) (*OrderedMap, error) {
	id, err := e.GenerateIDCtx(ctx)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, i18n.NewError(ctx, abimsgs.MsgNotEnoughBytesABISignature)
	}
	if !bytes.Equal(id, b[0:4]) {
		return nil, i18n.NewError(ctx, abimsgs.MsgIncorrectABISignatureID, e.Name, hex.EncodeToString(id), hex.EncodeToString(b[0:4]))
	}
	return e.Inputs.DecodeABIDataCtx(ctx, b[4:])
}

// DecodeOutputs decodes return data against Outputs - spec.md §4.6
// "decode_function_result".
func (e *Entry) DecodeOutputs(b []byte) (*OrderedMap, error) {
	return e.DecodeOutputsCtx(context.Background(), b)
}

func (e *Entry) DecodeOutputsCtx(ctx context.Context, b []byte) (*OrderedMap, error) {
	return e.Outputs.DecodeABIDataCtx(ctx, b)
}

// Validate processes all the components of the type of this ABI parameter:
// the elementary type, array dimensions, and tuple component types
// (recursively). Caches the resulting type tree on the Parameter.
func (p *Parameter) Validate() (err error) {
	return p.ValidateCtx(context.Background())
}

func (p *Parameter) ValidateCtx(ctx context.Context) (err error) {
	p.parsed, err = p.parseABIParameterComponents(ctx)
	return err
}

// SignatureString generates the canonical signature string of the ABI
// parameter. Validate is invoked implicitly if it has not yet run.
func (p *Parameter) SignatureString() (s string, err error) {
	return p.SignatureStringCtx(context.Background())
}

func (p *Parameter) SignatureStringCtx(ctx context.Context) (string, error) {
	tc, err := p.TypeComponentTreeCtx(ctx)
	if err != nil {
		return "", err
	}
	return tc.String(), nil
}

// String returns the signature string, logging (not returning) any parse error.
func (p *Parameter) String() string {
	s, err := p.SignatureString()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
	}
	return s
}

// TypeComponentTree returns the root of the component tree for the
// parameter, parsing it (and caching the result) if needed.
func (p *Parameter) TypeComponentTree() (TypeComponent, error) {
	return p.TypeComponentTreeCtx(context.Background())
}

func (p *Parameter) TypeComponentTreeCtx(ctx context.Context) (TypeComponent, error) {
	tc, err := p.typeComponentTreeCtx(ctx)
	return TypeComponent(tc), err
}

func (p *Parameter) typeComponentTreeCtx(ctx context.Context) (*typeComponent, error) {
	if p.parsed == nil {
		if err := p.ValidateCtx(ctx); err != nil {
			return nil, err
		}
	}
	return p.parsed, nil
}

// TypeComponentTree returns the type component tree for the array (tuple) of
// individually typed parameters.
func (pa ParameterArray) TypeComponentTree() (TypeComponent, error) {
	return pa.TypeComponentTreeCtx(context.Background())
}

func (pa ParameterArray) TypeComponentTreeCtx(ctx context.Context) (TypeComponent, error) {
	children, err := pa.typeComponents(ctx)
	if err != nil {
		return nil, err
	}
	component := &typeComponent{
		cType:         TupleComponent,
		tupleChildren: children,
	}
	return component, nil
}
