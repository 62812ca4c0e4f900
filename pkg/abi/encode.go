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
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
)

// EncodeABIData implements spec.md §4.3's top-level encode(types, values)
// contract for a parameter array (a function's inputs/outputs, or an event's
// non-indexed fields), against native Go values supplied positionally.
func (pa ParameterArray) EncodeABIData(values []interface{}) ([]byte, error) {
	return pa.EncodeABIDataCtx(context.Background(), values)
}

func (pa ParameterArray) EncodeABIDataCtx(ctx context.Context, values []interface{}) ([]byte, error) {
	children, err := pa.typeComponents(ctx)
	if err != nil {
		return nil, err
	}
	return encodeHeadTail(ctx, "", children, values)
}

func (pa ParameterArray) typeComponents(ctx context.Context) ([]*typeComponent, error) {
	children := make([]*typeComponent, len(pa))
	for i, p := range pa {
		tc, err := p.parseABIParameterComponents(ctx)
		if err != nil {
			return nil, err
		}
		children[i] = tc
	}
	return children, nil
}

// encodeHeadTail implements spec.md §4.3's layout algorithm for a region of
// sibling values (top-level args, a tuple's fields, or an array's elements):
// it lays out the head left to right (full static encoding, or a 32-byte
// offset for dynamic values), then appends the tails in the same order. The
// returned buffer is a complete, self-contained region - offsets inside it
// are always relative to its own start (byte 0 of the returned slice), which
// is what satisfies the "recursive relative-offset rule" (spec.md §4.3) once
// this region is spliced as a tail into its parent: the parent never needs
// to know this region's absolute position to have encoded it correctly.
func encodeHeadTail(ctx context.Context, path string, children []*typeComponent, values []interface{}) ([]byte, error) {
	if len(values) != len(children) {
		return nil, i18n.NewError(ctx, abimsgs.MsgArityMismatch, len(children), len(values))
	}

	headSizes := make([]int, len(children))
	totalHead := 0
	for i, c := range children {
		headSizes[i] = headSize(c)
		totalHead += headSizes[i]
	}

	heads := make([][]byte, len(children))
	tails := make([][]byte, len(children))
	cursor := totalHead
	for i, c := range children {
		elPath := elementPath(path, c.keyName, i)
		encoded, err := encodeValue(ctx, elPath, c, values[i])
		if err != nil {
			return nil, err
		}
		if c.IsDynamic() {
			heads[i] = encode32ByteUint(big.NewInt(int64(cursor)))
			tails[i] = encoded
			cursor += len(encoded)
		} else {
			heads[i] = encoded
		}
	}

	buf := new(bytes.Buffer)
	for _, h := range heads {
		buf.Write(h)
	}
	for _, t := range tails {
		buf.Write(t)
	}
	return buf.Bytes(), nil
}

func elementPath(path string, keyName string, i int) string {
	if keyName != "" {
		return fmt.Sprintf("%s.%s", path, keyName)
	}
	return fmt.Sprintf("%s[%d]", path, i)
}

func encodeValue(ctx context.Context, path string, tc *typeComponent, v interface{}) ([]byte, error) {
	switch tc.cType {
	case ElementaryComponent:
		return encodeElementary(ctx, path, tc, v)
	case FixedArrayComponent:
		elems, err := coerceArray(ctx, path, v, tc.arrayLength)
		if err != nil {
			return nil, err
		}
		children := repeatChild(tc.arrayChild, tc.arrayLength)
		return encodeHeadTail(ctx, path, children, elems)
	case VariableArrayComponent:
		elems, err := coerceArray(ctx, path, v, -1)
		if err != nil {
			return nil, err
		}
		children := repeatChild(tc.arrayChild, len(elems))
		body, err := encodeHeadTail(ctx, path, children, elems)
		if err != nil {
			return nil, err
		}
		lenWord := encode32ByteUint(big.NewInt(int64(len(elems))))
		return append(lenWord, body...), nil
	case TupleComponent:
		fieldValues, err := coerceTuple(ctx, path, v, tc.tupleChildren)
		if err != nil {
			return nil, err
		}
		return encodeHeadTail(ctx, path, tc.tupleChildren, fieldValues)
	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgBadABITypeComponent, tc.cType)
	}
}

func repeatChild(child *typeComponent, n int) []*typeComponent {
	children := make([]*typeComponent, n)
	for i := range children {
		children[i] = child
	}
	return children
}

func encodeElementary(ctx context.Context, path string, tc *typeComponent, v interface{}) ([]byte, error) {
	switch tc.elementaryType {
	case ElementaryTypeUint:
		i, err := coerceBigInt(ctx, path, v)
		if err != nil {
			return nil, err
		}
		maxVal := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(tc.m)), big.NewInt(1))
		if i.Sign() < 0 || i.Cmp(maxVal) > 0 {
			return nil, i18n.NewError(ctx, abimsgs.MsgNumberTooLargeABIEncode, tc.m, path)
		}
		return encode32ByteUint(i), nil

	case ElementaryTypeInt:
		i, err := coerceBigInt(ctx, path, v)
		if err != nil {
			return nil, err
		}
		if !checkSignedIntFits(i, tc.m) {
			return nil, i18n.NewError(ctx, abimsgs.MsgNumberTooLargeABIEncode, tc.m, path)
		}
		return SerializeInt256TwosComplementBytes(i), nil

	case ElementaryTypeBool:
		b, err := coerceBool(ctx, path, v)
		if err != nil {
			return nil, err
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil

	case ElementaryTypeAddress:
		addrBytes, err := coerceFixedHexBytes(ctx, path, v, 20)
		if err != nil {
			return nil, err
		}
		word := make([]byte, 32)
		copy(word[12:], addrBytes)
		return word, nil

	case ElementaryTypeBytes:
		raw, err := coerceHexBytesOrRaw(ctx, path, v)
		if err != nil {
			return nil, err
		}
		if tc.elementarySuffix != "" {
			if len(raw) > int(tc.m) {
				return nil, i18n.NewError(ctx, abimsgs.MsgInsufficientDataABIEncode, tc.m, len(raw), path)
			}
			word := make([]byte, 32)
			copy(word, raw)
			return word, nil
		}
		lenWord := encode32ByteUint(big.NewInt(int64(len(raw))))
		return append(lenWord, padRight32(raw)...), nil

	case ElementaryTypeString:
		s, ok := v.(string)
		if !ok {
			return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "string", v, path)
		}
		raw := []byte(s)
		lenWord := encode32ByteUint(big.NewInt(int64(len(raw))))
		return append(lenWord, padRight32(raw)...), nil

	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgUnsupportedABIType, tc.elementaryType, path)
	}
}

func encode32ByteUint(i *big.Int) []byte {
	b := make([]byte, 32)
	i.FillBytes(b)
	return b
}

func padRight32(b []byte) []byte {
	padLen := (32 - len(b)%32) % 32
	padded := make([]byte, len(b)+padLen)
	copy(padded, b)
	return padded
}

func coerceArray(ctx context.Context, path string, v interface{}, expectedLen int) ([]interface{}, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "array", v, path)
	}
	n := rv.Len()
	if expectedLen >= 0 && n != expectedLen {
		return nil, i18n.NewError(ctx, abimsgs.MsgArityMismatch, expectedLen, n)
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func coerceTuple(ctx context.Context, path string, v interface{}, children []*typeComponent) ([]interface{}, error) {
	switch t := v.(type) {
	case *OrderedMap:
		out := make([]interface{}, len(children))
		for i, c := range children {
			key := fieldName(c.keyName, i)
			val, ok := t.Get(key)
			if !ok {
				return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "tuple field "+key, nil, path)
			}
			out[i] = val
		}
		return out, nil
	case map[string]interface{}:
		out := make([]interface{}, len(children))
		for i, c := range children {
			key := fieldName(c.keyName, i)
			val, ok := t[key]
			if !ok {
				return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "tuple field "+key, nil, path)
			}
			out[i] = val
		}
		return out, nil
	case []interface{}:
		if len(t) != len(children) {
			return nil, i18n.NewError(ctx, abimsgs.MsgArityMismatch, len(children), len(t))
		}
		return t, nil
	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "tuple", v, path)
	}
}

func coerceBigInt(ctx context.Context, path string, v interface{}) (*big.Int, error) {
	switch t := v.(type) {
	case *big.Int:
		return t, nil
	case int:
		return big.NewInt(int64(t)), nil
	case int64:
		return big.NewInt(t), nil
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			i, ok := new(big.Int).SetString(s[2:], 16)
			if !ok {
				return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "integer", v, path)
			}
			return i, nil
		}
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "integer", v, path)
		}
		return i, nil
	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "integer", v, path)
	}
}

func coerceBool(ctx context.Context, path string, v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(t) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "bool", v, path)
}

func coerceHexBytesOrRaw(ctx context.Context, path string, v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return hexDecodeLoose(ctx, path, t)
	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgWrongTypeComponentABIEncode, "bytes", v, path)
	}
}

func coerceFixedHexBytes(ctx context.Context, path string, v interface{}, n int) ([]byte, error) {
	b, err := coerceHexBytesOrRaw(ctx, path, v)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, i18n.NewError(ctx, abimsgs.MsgInsufficientDataABIEncode, n, len(b), path)
	}
	return b, nil
}

func hexDecodeLoose(ctx context.Context, path, s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, abimsgs.MsgWrongTypeComponentABIEncode, "hex", s, path)
	}
	return b, nil
}
