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

// Package abimsgs registers every error message the codec can raise, keyed by
// a stable FF23xxx code so callers can match on the code rather than the
// (potentially localized) message text.
package abimsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	// AbiParseError
	MsgUnsupportedABIType   = ffe("FF23001", "Unsupported ABI elementary type '%s' in '%s'")
	MsgUnsupportedABISuffix = ffe("FF23002", "Unsupported suffix '%s' for type '%s' (%s)")
	MsgMissingABISuffix     = ffe("FF23003", "Missing required suffix on type '%s' (%s)")
	MsgInvalidABISuffix     = ffe("FF23004", "Invalid suffix for type '%s' (%s)")
	MsgInvalidABIArraySpec  = ffe("FF23005", "Invalid array specifier '%s'")
	MsgEmptyTupleType       = ffe("FF23006", "Tuple type '%s' has no components")
	MsgZeroLengthFixedArray = ffe("FF23007", "Fixed array type '%s' has a zero length")
	MsgNestingTooDeep       = ffe("FF23008", "Type nesting exceeds the maximum supported depth (%d)")
	MsgBadABITypeComponent  = ffe("FF23009", "Invalid ABI type component: %v")

	// UnknownName
	MsgFunctionNotFound = ffe("FF23020", "Function not found: %s")
	MsgEventNotFound    = ffe("FF23021", "Event not found: %s")

	// ArityMismatch
	MsgArityMismatch = ffe("FF23030", "Expected %d argument(s), received %d")

	// TypeMismatch
	MsgWrongTypeComponentABIEncode = ffe("FF23040", "Expected a value of type %s but received %T for %s")

	// RangeError
	MsgNumberTooLargeABIEncode   = ffe("FF23050", "Number exceeds maximum for uint/int%d for %s")
	MsgNumberOutOfRangeABIDecode = ffe("FF23051", "Decoded number out of range for %s: %s")
	MsgInsufficientDataABIEncode = ffe("FF23052", "Insufficient data to encode type (required=%d supplied=%d) for %s")
	MsgArrayCountTooLarge        = ffe("FF23053", "Array length %s exceeds the remaining input for %s")

	// Truncated
	MsgNotEnoughBytesABIValue      = ffe("FF23060", "Not enough bytes to decode %s for %s")
	MsgNotEnoughBytesABISignature  = ffe("FF23061", "Not enough bytes to read the 4 byte function selector")
	MsgNotEnoughBytesABIArrayCount = ffe("FF23062", "Not enough bytes to decode the array length for %s")
	MsgNotEnoughTopics             = ffe("FF23063", "Not enough topics to decode indexed parameter %d of event %s")
	MsgNoTopicsOnLog               = ffe("FF23064", "Log record has no topics - cannot determine its event")

	// OffsetOutOfRange
	MsgOffsetOutOfRange  = ffe("FF23070", "Offset %d is out of range for a buffer of length %d (%s)")
	MsgOffsetGoesBackward = ffe("FF23071", "Offset %d points backward into the head region starting at %d (%s)")

	// InvalidUtf8
	MsgInvalidUTF8String = ffe("FF23080", "String value is not valid UTF-8 for %s")

	// Selector/signature mismatches on explicit decode
	MsgIncorrectABISignatureID = ffe("FF23090", "Incorrect function selector. Expected=%s(%s) Received=%s")
)
