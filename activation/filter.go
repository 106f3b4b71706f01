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

// Package activation gates shortlists by tenant entitlement. Activation
// records are owned by an external collaborator; this package only reads
// them and decides what a tenant may see.
package activation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// UnavailableMode decides what happens when activation data cannot be read.
type UnavailableMode int

const (
	// DegradeOpen serves the unfiltered shortlist and flags the response as
	// degraded. Availability over strictness.
	DegradeOpen UnavailableMode = iota
	// Reject fails the request with ErrActivationUnavailable.
	Reject
)

// Policy controls how the filter treats activation state.
type Policy struct {
	// RequireClaimed keeps only concepts the tenant has claimed. When false
	// every concept passes and claimed ones may merely be boosted.
	RequireClaimed bool
	// OnUnavailable picks the behavior when activation data cannot be read.
	OnUnavailable UnavailableMode
	// ClaimedBoost reorders claimed concepts ahead of unclaimed ones without
	// touching scores. Only meaningful when RequireClaimed is false.
	ClaimedBoost bool
}

// Option configures a Filter.
type Option func(*Filter)

// WithPolicy replaces the default policy.
func WithPolicy(p Policy) Option { return func(f *Filter) { f.policy = p } }

// WithLogger sets the filter's logger.
func WithLogger(logger *slog.Logger) Option { return func(f *Filter) { f.logger = logger } }

// Filter applies tenant activation policy to shortlists.
type Filter struct {
	activations storage.ActivationRepository
	policy      Policy
	logger      *slog.Logger
}

// NewFilter creates a Filter. The default policy is strict: only claimed
// concepts pass, and missing activation data degrades open.
func NewFilter(activations storage.ActivationRepository, opts ...Option) *Filter {
	f := &Filter{
		activations: activations,
		policy:      Policy{RequireClaimed: true, OnUnavailable: DegradeOpen},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "activation")
	return f
}

// Apply filters the shortlist for a tenant and re-ranks what remains. The
// returned bool reports whether the result is degraded, meaning activation
// data was unreadable and the policy chose to serve everything anyway.
// An empty tenant id means no tenant scope and passes everything through.
func (f *Filter) Apply(ctx context.Context, tenantId string, shortlist []core.MatchCandidate) ([]core.MatchCandidate, bool, error) {
	if tenantId == "" || len(shortlist) == 0 {
		return shortlist, false, nil
	}

	claims, err := f.activations.GetActivations(ctx, tenantId)
	if err != nil {
		if f.policy.OnUnavailable == Reject {
			return nil, false, fmt.Errorf("%w: %w", core.ErrActivationUnavailable, err)
		}
		f.logger.Warn("activation data unavailable, serving unfiltered",
			"tenant", tenantId, "error", err)
		return shortlist, true, nil
	}

	if f.policy.RequireClaimed {
		kept := make([]core.MatchCandidate, 0, len(shortlist))
		for _, cand := range shortlist {
			if claims[cand.ConceptId] {
				kept = append(kept, cand)
			}
		}
		return rerank(kept), false, nil
	}

	if f.policy.ClaimedBoost {
		boosted := append([]core.MatchCandidate(nil), shortlist...)
		sort.SliceStable(boosted, func(i, j int) bool {
			return claims[boosted[i].ConceptId] && !claims[boosted[j].ConceptId]
		})
		return rerank(boosted), false, nil
	}
	return shortlist, false, nil
}

func rerank(shortlist []core.MatchCandidate) []core.MatchCandidate {
	for i := range shortlist {
		shortlist[i].Rank = i + 1
	}
	return shortlist
}
