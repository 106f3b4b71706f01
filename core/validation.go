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

import (
	"fmt"
	"regexp"
)

// MaxQueryLength bounds raw query text. Longer inputs are rejected rather
// than truncated, since a truncated query would silently change meaning.
const MaxQueryLength = 1024

var tenantIdPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateQuery checks a raw query and tenant before any work is done.
// Failures wrap ErrInvalidQuery and are surfaced to the caller immediately.
func ValidateQuery(rawText, tenantId string) error {
	if rawText == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if len(rawText) > MaxQueryLength {
		return fmt.Errorf("%w: query text exceeds %d bytes", ErrInvalidQuery, MaxQueryLength)
	}
	if !tenantIdPattern.MatchString(tenantId) {
		return fmt.Errorf("%w: malformed tenant id %q", ErrInvalidQuery, tenantId)
	}
	return nil
}

// ValidateVector checks a vector against the expected encoder dimension.
func ValidateVector(vector []float32, dim int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if dim > 0 && len(vector) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dim)
	}
	return nil
}

// ValidateConcept checks a concept record at the storage boundary.
func ValidateConcept(c *Concept) error {
	if c == nil {
		return fmt.Errorf("%w: nil concept", ErrEmptyConceptLabels)
	}
	for _, label := range c.Labels {
		if label != "" {
			return nil
		}
	}
	return ErrEmptyConceptLabels
}
