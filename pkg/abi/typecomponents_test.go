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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElementaryTypes(t *testing.T) {
	for _, c := range []struct {
		in   string
		want string
	}{
		{"uint", "uint256"},
		{"int", "int256"},
		{"uint8", "uint8"},
		{"bool", "bool"},
		{"address", "address"},
		{"bytes32", "bytes32"},
		{"bytes", "bytes"},
		{"string", "string"},
		{"uint256[]", "uint256[]"},
		{"uint256[3]", "uint256[3]"},
		{"uint256[2][3]", "uint256[2][3]"},
	} {
		p := &Parameter{Type: c.in}
		tc, err := p.parseABIParameterComponents(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, c.want, tc.String())
	}
}

func TestParseTupleFromComponents(t *testing.T) {
	p := &Parameter{
		Type: "tuple",
		Components: ParameterArray{
			{Name: "a", Type: "uint256"},
			{Name: "b", Type: "bytes"},
		},
	}
	tc, err := p.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "(uint256,bytes)", tc.String())
	assert.True(t, tc.IsDynamic())
}

func TestCanonicalIdempotence(t *testing.T) {
	// spec.md §8 property 4: canonical(parse(canonical(t))) = canonical(t)
	p := &Parameter{Type: "uint256[2][]"}
	tc, err := p.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)
	canon := tc.String()

	p2 := &Parameter{Type: canon}
	tc2, err := p2.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, canon, tc2.String())
}

func TestUnsupportedElementaryType(t *testing.T) {
	p := &Parameter{Type: "fixed128x18"}
	_, err := p.parseABIParameterComponents(context.Background())
	assert.ErrorContains(t, err, "FF23001")
}

func TestEmptyTupleRejected(t *testing.T) {
	p := &Parameter{Type: "tuple"}
	_, err := p.parseABIParameterComponents(context.Background())
	assert.ErrorContains(t, err, "FF23006")
}

func TestZeroLengthFixedArrayRejected(t *testing.T) {
	p := &Parameter{Type: "uint256[0]"}
	_, err := p.parseABIParameterComponents(context.Background())
	assert.ErrorContains(t, err, "FF23007")
}

func TestInvalidSuffixRejected(t *testing.T) {
	p := &Parameter{Type: "uint7"}
	_, err := p.parseABIParameterComponents(context.Background())
	assert.ErrorContains(t, err, "FF23004")
}

func TestBytesTooWideRejected(t *testing.T) {
	p := &Parameter{Type: "bytes33"}
	_, err := p.parseABIParameterComponents(context.Background())
	assert.ErrorContains(t, err, "FF23004")
}

func TestStaticSizeAndDynamism(t *testing.T) {
	p := &Parameter{Type: "uint256[3]"}
	tc, err := p.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)
	assert.False(t, tc.IsDynamic())
	assert.Equal(t, 96, tc.StaticSize())

	p2 := &Parameter{Type: "string[3]"}
	tc2, err := p2.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)
	assert.True(t, tc2.IsDynamic())
}

func TestTypeExpressionCacheIsTransparent(t *testing.T) {
	// Parsing the same elementary type string twice (cache miss, then cache
	// hit) must yield equal trees - spec.md §5: memoization MUST NOT be
	// observable.
	p1 := &Parameter{Type: "uint96[4]"}
	tc1, err := p1.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)

	p2 := &Parameter{Type: "uint96[4]"}
	tc2, err := p2.parseABIParameterComponents(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, tc1.String(), tc2.String())
	assert.Equal(t, tc1.StaticSize(), tc2.StaticSize())
}
