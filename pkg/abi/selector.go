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
	"time"

	"github.com/karlseguin/ccache"
)

// signatureHashCache memoizes keccak256(signature) keyed by the canonical
// signature string itself (which already encodes the name and canonical
// argument types). Memoization is a pure performance optimization: a cache
// hit and a cache miss return byte-identical hashes (exercised in
// TestSignatureHashCacheIsTransparent in abi_test.go).
var signatureHashCache = ccache.New(ccache.Configure().MaxSize(1024))

const signatureHashCacheTTL = time.Hour

func hashSignatureCtx(ctx context.Context, signature string) ([]byte, error) {
	if item := signatureHashCache.Get(signature); item != nil && !item.Expired() {
		return item.Value().([]byte), nil
	}
	hash := Keccak256([]byte(signature))
	signatureHashCache.Set(signature, hash, signatureHashCacheTTL)
	return hash, nil
}
