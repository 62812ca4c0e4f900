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
	"encoding/json"
	"fmt"
)

// OrderedMap is a field-order-preserving map, used to represent a decoded
// tuple - spec.md §4.4 requires tuple decode results to be "an ordered map
// keyed by field name", since Go's native map does not preserve insertion
// order and the field order of a decoded tuple must be stable and
// inspectable (spec.md §8 property 1, round trip).
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

// NewOrderedMap returns an empty OrderedMap ready for Set calls.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]interface{})}
}

// Set inserts or updates key. The first Set of a given key fixes its
// position in Keys().
func (m *OrderedMap) Set(key string, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key, and whether it was present.
func (m *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the field names in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Len is the number of fields in the map.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// MarshalJSON renders the map as a JSON object with fields in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fieldName returns name, or the positional "field{i}" fallback used
// whenever an ABI parameter/component omits a name - spec.md §4.4.
func fieldName(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("field%d", i)
}

func componentsToOrderedMap(names []string, values []interface{}) *OrderedMap {
	om := NewOrderedMap()
	for i, v := range values {
		om.Set(fieldName(names[i], i), v)
	}
	return om
}
