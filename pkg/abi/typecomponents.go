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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/karlseguin/ccache"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
)

// typeExpressionCache memoizes the pure type-expression-string -> type-tree
// parse (parseABIParameterComponentsDepth for a Parameter with no Components,
// i.e. a string like "uint256[]" with no tuple nesting). It is process-wide
// rather than per-Parameter because the same elementary/array type string
// recurs across nearly every ABI ("uint256" above all); the parsed tree is
// immutable once built so sharing it is safe. Parameters carrying Components
// (tuples) are never cached here since their shape depends on more than the
// type string alone.
var typeExpressionCache = ccache.New(ccache.Configure().MaxSize(1024))

const typeExpressionCacheTTL = time.Hour

// maxTypeNestingDepth bounds tuple/array nesting so a pathological ABI cannot
// blow the stack while parsing or walking the type tree.
const maxTypeNestingDepth = 32

// TypeComponent is a modelled representation of a component of an ABI type.
// We don't just go to the tuple level, we go down all the way through the
// arrays too. This breaks things down into the way values are serialized.
// Example "((uint256,string[2],string[])[][3][],string)" becomes:
//   - tuple1
//   - variable size array
//   - fixed size [3] array
//   - variable size array
//   - tuple2
//   - uint256
//   - fixed size [2] array
//   - string
//   - variable size array
//   - string
//   - string
type TypeComponent interface {
	String() string                 // the canonical signature for this level of the tree
	ComponentType() ComponentType   // classification (tuple, array or elemental)
	ElementaryType() ElementaryType // only non-empty for elementary components
	ElementaryM() uint16            // the <M> suffix (bit width, or byte length for bytesN)
	ArrayLength() int               // only meaningful for FixedArrayComponent
	ArrayChild() TypeComponent      // only non-nil for array components
	TupleChildren() []TypeComponent // only non-nil for tuple components
	KeyName() string                // the parameter name at this level, if any
	IsDynamic() bool                // true iff the encoded length of this type depends on the value
	StaticSize() int                // byte size when IsDynamic() is false; undefined otherwise
}

type typeComponent struct {
	cType            ComponentType
	elementaryType   ElementaryType
	elementarySuffix string
	m                uint16
	arrayLength      int
	arrayChild       *typeComponent
	tupleChildren    []*typeComponent
	keyName          string
}

// ElementaryType is the enum of elementary (non-array, non-tuple) ABI types
// this codec understands. Only the types spec.md's type grammar names are
// modelled - no "fixed"/"ufixed" fixed-point types, and no "function" type,
// since neither appears in the grammar this codec implements.
type ElementaryType string

const (
	ElementaryTypeInt     ElementaryType = "int"
	ElementaryTypeUint    ElementaryType = "uint"
	ElementaryTypeAddress ElementaryType = "address"
	ElementaryTypeBool    ElementaryType = "bool"
	ElementaryTypeBytes   ElementaryType = "bytes"
	ElementaryTypeString  ElementaryType = "string"
	ElementaryTypeTuple   ElementaryType = "tuple"
)

type suffixRule struct {
	suffixType    suffixType
	defaultSuffix string
	mMin          uint16
	mMax          uint16
	mMod          uint16
}

type suffixType int

const (
	suffixTypeNone     suffixType = iota // no suffix possible - "address", "bool"
	suffixTypeRequired                   // a single dimension suffix is mandatory - "uint256"
	suffixTypeOptional                   // a single dimension suffix is optional - "bytes"/"bytes32"
)

var elementaryRules = map[ElementaryType]suffixRule{
	ElementaryTypeInt:     {suffixType: suffixTypeRequired, defaultSuffix: "256", mMin: 8, mMax: 256, mMod: 8},
	ElementaryTypeUint:    {suffixType: suffixTypeRequired, defaultSuffix: "256", mMin: 8, mMax: 256, mMod: 8},
	ElementaryTypeAddress: {suffixType: suffixTypeNone},
	ElementaryTypeBool:    {suffixType: suffixTypeNone},
	ElementaryTypeBytes:   {suffixType: suffixTypeOptional, mMin: 1, mMax: 32},
	ElementaryTypeString:  {suffixType: suffixTypeNone},
	ElementaryTypeTuple:   {suffixType: suffixTypeNone},
}

type ComponentType int

const (
	ElementaryComponent ComponentType = iota
	FixedArrayComponent
	VariableArrayComponent
	TupleComponent
)

func (tc *typeComponent) String() string {
	switch tc.cType {
	case ElementaryComponent:
		return fmt.Sprintf("%s%s", tc.elementaryType, tc.elementarySuffix)
	case FixedArrayComponent:
		return fmt.Sprintf("%s[%d]", tc.arrayChild.String(), tc.arrayLength)
	case VariableArrayComponent:
		return fmt.Sprintf("%s[]", tc.arrayChild.String())
	case TupleComponent:
		buff := new(strings.Builder)
		buff.WriteByte('(')
		for i, child := range tc.tupleChildren {
			if i > 0 {
				buff.WriteByte(',')
			}
			buff.WriteString(child.String())
		}
		buff.WriteByte(')')
		return buff.String()
	default:
		return ""
	}
}

func (tc *typeComponent) ComponentType() ComponentType   { return tc.cType }
func (tc *typeComponent) ElementaryType() ElementaryType { return tc.elementaryType }
func (tc *typeComponent) ElementaryM() uint16            { return tc.m }
func (tc *typeComponent) ArrayLength() int               { return tc.arrayLength }
func (tc *typeComponent) KeyName() string                { return tc.keyName }

func (tc *typeComponent) ArrayChild() TypeComponent {
	if tc.arrayChild == nil {
		return nil
	}
	return tc.arrayChild
}

func (tc *typeComponent) TupleChildren() []TypeComponent {
	if tc.tupleChildren == nil {
		return nil
	}
	children := make([]TypeComponent, len(tc.tupleChildren))
	for i, c := range tc.tupleChildren {
		children[i] = c
	}
	return children
}

// IsDynamic implements spec.md §3's dynamism predicate: bytes, string, a
// dynamic array, a fixed array of a dynamic type, or a tuple containing any
// dynamic field.
func (tc *typeComponent) IsDynamic() bool {
	switch tc.cType {
	case VariableArrayComponent:
		return true
	case FixedArrayComponent:
		return tc.arrayChild.IsDynamic()
	case TupleComponent:
		for _, child := range tc.tupleChildren {
			if child.IsDynamic() {
				return true
			}
		}
		return false
	case ElementaryComponent:
		if tc.elementaryType == ElementaryTypeString {
			return true
		}
		if tc.elementaryType == ElementaryTypeBytes && tc.elementarySuffix == "" {
			return true
		}
		return false
	default:
		return false
	}
}

// StaticSize is the head-size contribution of a static type: a multiple of 32
// bytes, per spec.md §3. Only meaningful when IsDynamic() is false.
func (tc *typeComponent) StaticSize() int {
	switch tc.cType {
	case ElementaryComponent:
		return 32
	case FixedArrayComponent:
		return tc.arrayLength * tc.arrayChild.StaticSize()
	case TupleComponent:
		total := 0
		for _, child := range tc.tupleChildren {
			total += child.StaticSize()
		}
		return total
	default:
		return 0
	}
}

// headSize is 32 for any dynamic type (it contributes a single offset word to
// the head) or StaticSize() otherwise - spec.md §4.3 step 1.
func headSize(tc *typeComponent) int {
	if tc.IsDynamic() {
		return 32
	}
	return tc.StaticSize()
}

func (p *Parameter) parseABIParameterComponents(ctx context.Context) (*typeComponent, error) {
	return p.parseABIParameterComponentsDepth(ctx, 0)
}

func (p *Parameter) parseABIParameterComponentsDepth(ctx context.Context, depth int) (tc *typeComponent, err error) {
	if depth > maxTypeNestingDepth {
		return nil, i18n.NewError(ctx, abimsgs.MsgNestingTooDeep, maxTypeNestingDepth)
	}

	abiTypeString := p.Type

	if len(p.Components) == 0 {
		if item := typeExpressionCache.Get(abiTypeString); item != nil && !item.Expired() {
			return item.Value().(*typeComponent), nil
		}
	}

	// Extract the elementary type name - the alphabetic prefix
	etBuilder := new(strings.Builder)
	for _, r := range abiTypeString {
		if r >= 'a' && r <= 'z' {
			etBuilder.WriteRune(r)
		} else {
			break
		}
	}
	etStr := etBuilder.String()
	et := ElementaryType(etStr)
	rule, ok := elementaryRules[et]
	if !ok {
		return nil, i18n.NewError(ctx, abimsgs.MsgUnsupportedABIType, etStr, abiTypeString)
	}

	suffix, arrays := splitElementaryTypeSuffix(abiTypeString, len(etStr))
	if suffix == "" {
		suffix = rule.defaultSuffix
	}

	if et == ElementaryTypeTuple {
		if len(p.Components) == 0 {
			return nil, i18n.NewError(ctx, abimsgs.MsgEmptyTupleType, abiTypeString)
		}
		tc = &typeComponent{
			cType:         TupleComponent,
			tupleChildren: make([]*typeComponent, len(p.Components)),
		}
		for i, c := range p.Components {
			child, err := c.parseABIParameterComponentsDepth(ctx, depth+1)
			if err != nil {
				return nil, err
			}
			// The child may be a shared typeExpressionCache entry, so the
			// key name is set on a copy rather than on the cached node.
			named := *child
			named.keyName = c.Name
			tc.tupleChildren[i] = &named
		}
	} else {
		tc = &typeComponent{
			cType:            ElementaryComponent,
			elementaryType:   et,
			elementarySuffix: suffix,
		}
		switch rule.suffixType {
		case suffixTypeNone:
			if suffix != "" {
				return nil, i18n.NewError(ctx, abimsgs.MsgUnsupportedABISuffix, suffix, abiTypeString, et)
			}
		case suffixTypeRequired:
			if suffix == "" {
				return nil, i18n.NewError(ctx, abimsgs.MsgMissingABISuffix, abiTypeString, et)
			}
			if err := parseMSuffix(ctx, abiTypeString, tc, rule, suffix); err != nil {
				return nil, err
			}
		case suffixTypeOptional:
			if suffix != "" {
				if err := parseMSuffix(ctx, abiTypeString, tc, rule, suffix); err != nil {
					return nil, err
				}
			}
		}
	}

	if arrays != "" {
		tc, err = parseArrays(ctx, abiTypeString, tc, arrays, depth)
		if err != nil {
			return nil, err
		}
	}

	if len(p.Components) == 0 {
		typeExpressionCache.Set(abiTypeString, tc, typeExpressionCacheTTL)
	}

	return tc, nil
}

// splitElementaryTypeSuffix splits out the "256" from "[8][]" in "uint256[8][]"
func splitElementaryTypeSuffix(abiTypeString string, pos int) (string, string) {
	suffix := new(strings.Builder)
	for ; pos < len(abiTypeString) && abiTypeString[pos] != '['; pos++ {
		suffix.WriteByte(abiTypeString[pos])
	}
	arrays := new(strings.Builder)
	for ; pos < len(abiTypeString); pos++ {
		arrays.WriteByte(abiTypeString[pos])
	}
	return suffix.String(), arrays.String()
}

// parseMSuffix parses the "256" in "uint256" against the <M> rules for an
// elementary type such as uint<M>, int<M>, or bytes<M>.
func parseMSuffix(ctx context.Context, abiTypeString string, tc *typeComponent, rule suffixRule, suffix string) error {
	val, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return i18n.WrapError(ctx, err, abimsgs.MsgInvalidABISuffix, abiTypeString, tc.elementaryType)
	}
	tc.m = uint16(val)
	if tc.m < rule.mMin || tc.m > rule.mMax {
		return i18n.NewError(ctx, abimsgs.MsgInvalidABISuffix, abiTypeString, tc.elementaryType)
	}
	if rule.mMod != 0 && (tc.m%rule.mMod) != 0 {
		return i18n.NewError(ctx, abimsgs.MsgInvalidABISuffix, abiTypeString, tc.elementaryType)
	}
	return nil
}

// parseArrayM parses the "8" in "uint256[8]" for a fixed length array of <type>[M]
func parseArrayM(ctx context.Context, abiTypeString string, mStr string) (int, error) {
	val, err := strconv.ParseUint(mStr, 10, 32)
	if err != nil {
		return 0, i18n.WrapError(ctx, err, abimsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	if val == 0 {
		return 0, i18n.NewError(ctx, abimsgs.MsgZeroLengthFixedArray, abiTypeString)
	}
	return int(val), nil
}

// parseArrays recursively wraps child in array dimensions for the "[8][]"
// part of "uint256[8][]", for variable or fixed array types.
func parseArrays(ctx context.Context, abiTypeString string, child *typeComponent, suffix string, depth int) (*typeComponent, error) {
	if depth > maxTypeNestingDepth {
		return nil, i18n.NewError(ctx, abimsgs.MsgNestingTooDeep, maxTypeNestingDepth)
	}

	pos := 0
	if pos >= len(suffix) || suffix[pos] != '[' {
		return nil, i18n.NewError(ctx, abimsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	mStr := new(strings.Builder)
	for pos++; pos < len(suffix) && suffix[pos] != ']'; pos++ {
		mStr.WriteByte(suffix[pos])
	}
	if pos >= len(suffix) {
		return nil, i18n.NewError(ctx, abimsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	pos++

	var ac *typeComponent
	if mStr.Len() == 0 {
		ac = &typeComponent{
			cType:      VariableArrayComponent,
			arrayChild: child,
		}
	} else {
		length, err := parseArrayM(ctx, abiTypeString, mStr.String())
		if err != nil {
			return nil, err
		}
		ac = &typeComponent{
			cType:       FixedArrayComponent,
			arrayChild:  child,
			arrayLength: length,
		}
	}

	if pos < len(suffix) {
		return parseArrays(ctx, abiTypeString, ac, suffix[pos:], depth+1)
	}

	return ac, nil
}
