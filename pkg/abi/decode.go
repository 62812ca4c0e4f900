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
	"context"
	"encoding/hex"
	"math/big"
	"unicode/utf8"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
)

// DecodeABIData implements spec.md §4.4's top-level decode(types, data)
// contract for a parameter array (a function's inputs/outputs, or an
// event's non-indexed fields), returning a field-order-preserving OrderedMap.
func (pa ParameterArray) DecodeABIData(data []byte) (*OrderedMap, error) {
	return pa.DecodeABIDataCtx(context.Background(), data)
}

func (pa ParameterArray) DecodeABIDataCtx(ctx context.Context, data []byte) (*OrderedMap, error) {
	children, err := pa.typeComponents(ctx)
	if err != nil {
		return nil, err
	}
	values, err := decodeHeadTail(ctx, "", data, 0, children, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pa))
	for i, p := range pa {
		names[i] = p.Name
	}
	return componentsToOrderedMap(names, values), nil
}

// decodeHeadTail is the decoder's mirror of encodeHeadTail: it walks a region
// of sibling types left to right, reading each static value inline or
// following a dynamic value's 32-byte offset. regionBase is the absolute
// position (within data) of byte 0 of this region - every offset read here is
// resolved as regionBase+offset, never as an absolute position directly, per
// spec.md §4.4 step 3's region-relative rule. This corrects the bug in the
// port's ancestor, which treated a nested offset as already absolute.
func decodeHeadTail(ctx context.Context, path string, data []byte, regionBase int, children []*typeComponent, depth int) ([]interface{}, error) {
	if depth > maxTypeNestingDepth {
		return nil, i18n.NewError(ctx, abimsgs.MsgNestingTooDeep, maxTypeNestingDepth)
	}

	values := make([]interface{}, len(children))
	cursor := regionBase
	for i, c := range children {
		elPath := elementPath(path, c.keyName, i)
		hs := headSize(c)

		if c.IsDynamic() {
			offsetWord, err := readWord(ctx, data, cursor, elPath)
			if err != nil {
				return nil, err
			}
			off := new(big.Int).SetBytes(offsetWord)
			if !off.IsInt64() {
				return nil, i18n.NewError(ctx, abimsgs.MsgOffsetOutOfRange, off, len(data), elPath)
			}
			absPos := regionBase + int(off.Int64())
			if absPos < regionBase {
				return nil, i18n.NewError(ctx, abimsgs.MsgOffsetGoesBackward, absPos, regionBase, elPath)
			}
			if absPos > len(data) {
				return nil, i18n.NewError(ctx, abimsgs.MsgOffsetOutOfRange, absPos, len(data), elPath)
			}
			v, err := decodeValue(ctx, elPath, data, absPos, c, depth+1)
			if err != nil {
				return nil, err
			}
			values[i] = v
		} else {
			v, err := decodeValue(ctx, elPath, data, cursor, c, depth+1)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		cursor += hs
	}
	return values, nil
}

func decodeValue(ctx context.Context, path string, data []byte, pos int, tc *typeComponent, depth int) (interface{}, error) {
	if depth > maxTypeNestingDepth {
		return nil, i18n.NewError(ctx, abimsgs.MsgNestingTooDeep, maxTypeNestingDepth)
	}
	switch tc.cType {
	case ElementaryComponent:
		return decodeElementary(ctx, path, data, pos, tc)

	case FixedArrayComponent:
		children := repeatChild(tc.arrayChild, tc.arrayLength)
		return decodeHeadTail(ctx, path, data, pos, children, depth)

	case VariableArrayComponent:
		lengthWord, err := readWord(ctx, data, pos, path)
		if err != nil {
			return nil, err
		}
		length := new(big.Int).SetBytes(lengthWord)
		if !length.IsInt64() || length.Sign() < 0 {
			return nil, i18n.NewError(ctx, abimsgs.MsgArrayCountTooLarge, length.String(), path)
		}
		n := int(length.Int64())
		// Every element needs at least one 32-byte head word; bound the
		// claimed length against the remaining input before allocating
		// anything, per spec.md §5's resource-bounds requirement.
		if n < 0 || n > (len(data)-(pos+32))/32 {
			return nil, i18n.NewError(ctx, abimsgs.MsgArrayCountTooLarge, length.String(), path)
		}
		children := repeatChild(tc.arrayChild, n)
		return decodeHeadTail(ctx, path, data, pos+32, children, depth)

	case TupleComponent:
		values, err := decodeHeadTail(ctx, path, data, pos, tc.tupleChildren, depth)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(tc.tupleChildren))
		for i, c := range tc.tupleChildren {
			names[i] = c.keyName
		}
		return componentsToOrderedMap(names, values), nil

	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgBadABITypeComponent, tc.cType)
	}
}

func readWord(ctx context.Context, data []byte, pos int, path string) ([]byte, error) {
	if pos < 0 || pos+32 > len(data) {
		return nil, i18n.NewError(ctx, abimsgs.MsgNotEnoughBytesABIValue, "32 bytes", path)
	}
	return data[pos : pos+32], nil
}

func decodeElementary(ctx context.Context, path string, data []byte, pos int, tc *typeComponent) (interface{}, error) {
	switch tc.elementaryType {
	case ElementaryTypeUint:
		word, err := readWord(ctx, data, pos, path)
		if err != nil {
			return nil, err
		}
		i := new(big.Int).SetBytes(word)
		maxVal := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(tc.m)), big.NewInt(1))
		if i.Cmp(maxVal) > 0 {
			return nil, i18n.NewError(ctx, abimsgs.MsgNumberOutOfRangeABIDecode, path, i.String())
		}
		return i.String(), nil

	case ElementaryTypeInt:
		word, err := readWord(ctx, data, pos, path)
		if err != nil {
			return nil, err
		}
		i := ParseInt256TwosComplementBytes(word)
		if !checkSignedIntFits(i, tc.m) {
			return nil, i18n.NewError(ctx, abimsgs.MsgNumberOutOfRangeABIDecode, path, i.String())
		}
		return i.String(), nil

	case ElementaryTypeBool:
		word, err := readWord(ctx, data, pos, path)
		if err != nil {
			return nil, err
		}
		// Policy: any non-zero 32-byte word is truthy, matching lenient
		// on-chain bool decoding (spec.md §4.4).
		for _, b := range word {
			if b != 0 {
				return true, nil
			}
		}
		return false, nil

	case ElementaryTypeAddress:
		word, err := readWord(ctx, data, pos, path)
		if err != nil {
			return nil, err
		}
		return "0x" + hex.EncodeToString(word[12:32]), nil

	case ElementaryTypeBytes:
		if tc.elementarySuffix != "" {
			word, err := readWord(ctx, data, pos, path)
			if err != nil {
				return nil, err
			}
			return "0x" + hex.EncodeToString(word[:tc.m]), nil
		}
		raw, err := decodeDynamicBytes(ctx, path, data, pos)
		if err != nil {
			return nil, err
		}
		return "0x" + hex.EncodeToString(raw), nil

	case ElementaryTypeString:
		raw, err := decodeDynamicBytes(ctx, path, data, pos)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, i18n.NewError(ctx, abimsgs.MsgInvalidUTF8String, path)
		}
		return string(raw), nil

	default:
		return nil, i18n.NewError(ctx, abimsgs.MsgUnsupportedABIType, tc.elementaryType, path)
	}
}

// decodeDynamicBytes reads the shared bytes/string wire layout: a 32-byte
// length L at pos, followed by L content bytes (the trailing zero padding to
// the next 32-byte boundary is not part of the value and is left alone).
func decodeDynamicBytes(ctx context.Context, path string, data []byte, pos int) ([]byte, error) {
	lengthWord, err := readWord(ctx, data, pos, path)
	if err != nil {
		return nil, err
	}
	length := new(big.Int).SetBytes(lengthWord)
	if !length.IsInt64() || length.Sign() < 0 {
		return nil, i18n.NewError(ctx, abimsgs.MsgArrayCountTooLarge, length.String(), path)
	}
	n := int(length.Int64())
	contentStart := pos + 32
	if n > len(data)-contentStart {
		return nil, i18n.NewError(ctx, abimsgs.MsgNotEnoughBytesABIValue, "bytes", path)
	}
	return data[contentStart : contentStart+n], nil
}
