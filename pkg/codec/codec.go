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

// Package codec provides the Codec facade: it binds a parsed ABI to an
// immutable selector/topic/name index built once at construction, then
// offers encode/decode entry points keyed by function name or hex selector,
// log decoding keyed by the log's topics[0], plus receipt-level log
// demultiplexing.
package codec

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/karlseguin/ccache"
	"github.com/kaleido-io/evmabi/internal/abimsgs"
	"github.com/kaleido-io/evmabi/pkg/abi"
	"github.com/kaleido-io/evmabi/pkg/ethtypes"
)

// LogRecord is the shape of a single event log the way a chain client (or a
// receipt) hands it over - modeled on the teacher's LogJSONRPC, trimmed to
// the fields the codec needs plus the passthrough metadata callers want
// carried alongside a decode result.
type LogRecord struct {
	Address     *ethtypes.Address0xHex      `json:"address"`
	Topics      []ethtypes.HexBytes0xPrefix `json:"topics"`
	Data        ethtypes.HexBytes0xPrefix   `json:"data"`
	BlockNumber uint64                      `json:"blockNumber"`
	TxHash      ethtypes.HexBytes0xPrefix   `json:"transactionHash"`
	LogIndex    uint64                      `json:"logIndex"`
	Removed     bool                        `json:"removed"`
}

// DecodedLog is a successfully decoded LogRecord: the matched event's name,
// its field values, and the original record's passthrough metadata.
type DecodedLog struct {
	EventName string          `json:"eventName"`
	Values    *abi.OrderedMap `json:"values"`
	Record    LogRecord       `json:"record"`
}

// Codec binds one parsed ABI to name/selector/topic indexes, built once and
// never mutated afterwards - spec.md §3's "Codec index (lifecycle)".
type Codec struct {
	abiDef          abi.ABI
	functionsByName map[string]*abi.Entry
	functionsBySel  map[string]*abi.Entry // key: lowercase hex, no 0x
	eventsByName    map[string]*abi.Entry
	eventsByTopic0  map[string]*abi.Entry // key: lowercase hex, no 0x
	resolutionCache *ccache.Cache
}

const resolutionCacheTTL = time.Hour

// New builds a Codec, eagerly validating every entry and indexing functions
// by name/selector and events by name/topic0 - any AbiParseError surfaces
// here rather than on first use.
func New(abiDef abi.ABI) (*Codec, error) {
	return NewCtx(context.Background(), abiDef)
}

func NewCtx(ctx context.Context, abiDef abi.ABI) (*Codec, error) {
	if err := abiDef.ValidateCtx(ctx); err != nil {
		return nil, err
	}

	c := &Codec{
		abiDef:          abiDef,
		functionsByName: make(map[string]*abi.Entry),
		functionsBySel:  make(map[string]*abi.Entry),
		eventsByName:    make(map[string]*abi.Entry),
		eventsByTopic0:  make(map[string]*abi.Entry),
		resolutionCache: ccache.New(ccache.Configure().MaxSize(1024)),
	}

	for _, e := range abiDef {
		switch {
		case e.IsFunction():
			if e.Name != "" {
				c.functionsByName[e.Name] = e
			}
			selector, err := e.FunctionSelectorCtx(ctx)
			if err != nil {
				return nil, err
			}
			c.functionsBySel[hex.EncodeToString(selector)] = e

		case e.Type == abi.Event:
			if e.Name != "" {
				c.eventsByName[e.Name] = e
			}
			if e.Anonymous {
				// An anonymous event's topic0 is never emitted on chain as
				// topics[0], so it cannot be used to demultiplex a log -
				// spec.md §4.2. It is indexed by name only, and DecodeLog
				// (which resolves events from topics[0]) does not decode it.
				continue
			}
			topic0, err := e.EventTopic0Ctx(ctx)
			if err != nil {
				return nil, err
			}
			c.eventsByTopic0[hex.EncodeToString(topic0)] = e
		}
	}

	log.L(ctx).Debugf("abi codec constructed: %d function(s), %d event(s)", len(c.functionsByName), len(c.eventsByName))
	return c, nil
}

func normalizeSelectorKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "0x"))
}

// resolveFunction looks up a function by name, or by its hex selector
// (with or without "0x", any case). Lookups are cheap map reads, but the
// normalized key is memoized per Codec instance so a caller hammering the
// same selector string repeatedly does not repeatedly pay the
// lower-casing/trim allocation.
func (c *Codec) resolveFunction(ctx context.Context, nameOrSelector string) (*abi.Entry, error) {
	if e, ok := c.functionsByName[nameOrSelector]; ok {
		return e, nil
	}
	cacheKey := "fn:" + nameOrSelector
	if item := c.resolutionCache.Get(cacheKey); item != nil && !item.Expired() {
		return item.Value().(*abi.Entry), nil
	}
	e, ok := c.functionsBySel[normalizeSelectorKey(nameOrSelector)]
	if !ok {
		return nil, i18n.NewError(ctx, abimsgs.MsgFunctionNotFound, nameOrSelector)
	}
	c.resolutionCache.Set(cacheKey, e, resolutionCacheTTL)
	return e, nil
}

func (c *Codec) resolveEvent(ctx context.Context, nameOrTopic string) (*abi.Entry, error) {
	if e, ok := c.eventsByName[nameOrTopic]; ok {
		return e, nil
	}
	cacheKey := "ev:" + nameOrTopic
	if item := c.resolutionCache.Get(cacheKey); item != nil && !item.Expired() {
		return item.Value().(*abi.Entry), nil
	}
	e, ok := c.eventsByTopic0[normalizeSelectorKey(nameOrTopic)]
	if !ok {
		return nil, i18n.NewError(ctx, abimsgs.MsgEventNotFound, nameOrTopic)
	}
	c.resolutionCache.Set(cacheKey, e, resolutionCacheTTL)
	return e, nil
}

// EncodeFunction resolves nameOrSelector against the index and encodes args
// as a full call data payload (selector + head/tail arguments).
func (c *Codec) EncodeFunction(nameOrSelector string, args []interface{}) ([]byte, error) {
	return c.EncodeFunctionCtx(context.Background(), nameOrSelector, args)
}

func (c *Codec) EncodeFunctionCtx(ctx context.Context, nameOrSelector string, args []interface{}) ([]byte, error) {
	e, err := c.resolveFunction(ctx, nameOrSelector)
	if err != nil {
		return nil, err
	}
	return e.EncodeCallDataCtx(ctx, args)
}

// DecodeFunction resolves nameOrSelector and decodes call data (selector +
// arguments) against its Inputs.
func (c *Codec) DecodeFunction(nameOrSelector string, data []byte) (*abi.OrderedMap, error) {
	return c.DecodeFunctionCtx(context.Background(), nameOrSelector, data)
}

func (c *Codec) DecodeFunctionCtx(ctx context.Context, nameOrSelector string, data []byte) (*abi.OrderedMap, error) {
	e, err := c.resolveFunction(ctx, nameOrSelector)
	if err != nil {
		return nil, err
	}
	return e.DecodeCallDataCtx(ctx, data)
}

// DecodeFunctionResult resolves nameOrSelector and decodes return data
// against its Outputs.
func (c *Codec) DecodeFunctionResult(nameOrSelector string, data []byte) (*abi.OrderedMap, error) {
	return c.DecodeFunctionResultCtx(context.Background(), nameOrSelector, data)
}

func (c *Codec) DecodeFunctionResultCtx(ctx context.Context, nameOrSelector string, data []byte) (*abi.OrderedMap, error) {
	e, err := c.resolveFunction(ctx, nameOrSelector)
	if err != nil {
		return nil, err
	}
	return e.DecodeOutputsCtx(ctx, data)
}

// DecodeLog resolves the event from topics[0] and decodes a single log -
// spec.md §4.5. The event is located by topics[0] only; there is no
// name-based variant, so anonymous events cannot be decoded through it.
func (c *Codec) DecodeLog(record LogRecord) (*DecodedLog, error) {
	return c.DecodeLogCtx(context.Background(), record)
}

func (c *Codec) DecodeLogCtx(ctx context.Context, record LogRecord) (*DecodedLog, error) {
	if len(record.Topics) == 0 {
		return nil, i18n.NewError(ctx, abimsgs.MsgNoTopicsOnLog)
	}
	e, err := c.resolveEvent(ctx, hex.EncodeToString(record.Topics[0]))
	if err != nil {
		return nil, err
	}
	topics := make([][]byte, len(record.Topics))
	for i, t := range record.Topics {
		topics[i] = t
	}
	values, err := e.DecodeLogCtx(ctx, topics, record.Data)
	if err != nil {
		return nil, err
	}
	return &DecodedLog{EventName: e.Name, Values: values, Record: record}, nil
}

// DecodeLogs implements spec.md §4.5's receipt-level demultiplexing: a log
// whose topics[0] is not a known event topic is silently skipped, a log that
// fails to decode for any other reason is also skipped, and the batch never
// aborts. Output order matches input order (spec.md §8 property 6).
func (c *Codec) DecodeLogs(records []LogRecord) []DecodedLog {
	return c.DecodeLogsCtx(context.Background(), records)
}

func (c *Codec) DecodeLogsCtx(ctx context.Context, records []LogRecord) []DecodedLog {
	decoded := make([]DecodedLog, 0, len(records))
	for i, r := range records {
		d, err := c.DecodeLogCtx(ctx, r)
		if err != nil {
			log.L(ctx).Debugf("skipping log %d in batch: %s", i, err)
			continue
		}
		decoded = append(decoded, *d)
	}
	return decoded
}

// KnownEventTopics returns the topic0 of every non-anonymous event in the
// index, for callers that need to build an eth_getLogs topic filter.
func (c *Codec) KnownEventTopics() [][]byte {
	topics := make([][]byte, 0, len(c.eventsByTopic0))
	for hexTopic := range c.eventsByTopic0 {
		b, _ := hex.DecodeString(hexTopic)
		topics = append(topics, b)
	}
	return topics
}
