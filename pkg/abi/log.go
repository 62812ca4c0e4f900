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

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
)

// DecodeLog implements spec.md §4.5: split Inputs into indexed/non-indexed,
// consume one topic per indexed parameter (topics[0] is the event topic
// itself for non-anonymous events and is never a value), and decode the
// non-indexed parameters out of data using the same head/tail decoder used
// for function outputs.
func (e *Entry) DecodeLog(topics [][]byte, data []byte) (*OrderedMap, error) {
	return e.DecodeLogCtx(context.Background(), topics, data)
}

func (e *Entry) DecodeLogCtx(ctx context.Context, topics [][]byte, data []byte) (*OrderedMap, error) {
	var indexed, nonIndexed ParameterArray
	for _, p := range e.Inputs {
		if p.Indexed {
			indexed = append(indexed, p)
		} else {
			nonIndexed = append(nonIndexed, p)
		}
	}

	topicIdx := 1
	if e.Anonymous {
		topicIdx = 0
	}

	om := NewOrderedMap()
	for i, p := range indexed {
		if topicIdx >= len(topics) {
			return nil, i18n.NewError(ctx, abimsgs.MsgNotEnoughTopics, topicIdx, e.Name)
		}
		topic := topics[topicIdx]
		topicIdx++

		tc, err := p.parseABIParameterComponents(ctx)
		if err != nil {
			return nil, err
		}

		name := fieldName(p.Name, i)

		if tc.IsDynamic() {
			// Dynamic indexed values are not recoverable from a topic -
			// it holds keccak256(encoded value), not the value itself
			// (spec.md §4.5). Return the raw hash rather than attempt
			// preimage recovery.
			om.Set(name, "0x"+hex.EncodeToString(topic))
			continue
		}

		v, err := decodeValue(ctx, name, topic, 0, tc, 0)
		if err != nil {
			return nil, err
		}
		om.Set(name, v)
	}

	nonIndexedValues, err := nonIndexed.DecodeABIDataCtx(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, k := range nonIndexedValues.Keys() {
		v, _ := nonIndexedValues.Get(k)
		om.Set(k, v)
	}

	return om, nil
}
