// Copyright 2025 MarketLounge
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


package core

import "errors"

// Error taxonomy of the matching core. Only validation errors are surfaced
// to query callers as request failures; everything else is either recovered
// through the lexical-only degrade path or reported to operators.
var (
	// ErrInvalidQuery indicates a malformed query or tenant. Not retryable.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEncodingFailed indicates the encoder call failed after bounded retries.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrIndexUnavailable indicates no index snapshot is ready to serve.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrRebuildInProgress indicates a rebuild was requested while one is running.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")

	// ErrActivationUnavailable indicates tenant activation data could not be read.
	ErrActivationUnavailable = errors.New("activation data unavailable")

	// ErrDimensionMismatch indicates a vector of unexpected dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector indicates a missing or zero-length vector.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrEmptyConceptLabels indicates a concept without any label.
	ErrEmptyConceptLabels = errors.New("concept must have at least one label")
)
