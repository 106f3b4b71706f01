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

// Package fusion combines lexical and vector signals into one ranked
// shortlist. Each signal is min-max normalized over the candidates that
// carry it, then blended with configurable weights; a candidate missing a
// signal scores zero on it but stays in the running.
package fusion

import (
	"sort"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/index"
	"github.com/marketlounge/matchcore/lexical"
)

// Weights blends the two signals. They need not sum to one.
type Weights struct {
	Lexical float32
	Vector  float32
}

// DefaultWeights favors lexical evidence, which is more precise for the
// short label-like queries this engine sees.
var DefaultWeights = Weights{Lexical: 0.6, Vector: 0.4}

// Config holds fusion settings.
type Config struct {
	Weights Weights
	// MinScoreFraction drops candidates scoring below this fraction of the
	// top fused score. The threshold adapts to result quality instead of
	// being absolute.
	MinScoreFraction float32
	// MaxResults caps the shortlist.
	MaxResults int
}

// Option configures a Fuser.
type Option func(*Config)

// WithWeights sets the signal weights.
func WithWeights(w Weights) Option { return func(c *Config) { c.Weights = w } }

// WithMinScoreFraction sets the adaptive threshold fraction.
func WithMinScoreFraction(f float32) Option { return func(c *Config) { c.MinScoreFraction = f } }

// WithMaxResults caps the shortlist length.
func WithMaxResults(n int) Option { return func(c *Config) { c.MaxResults = n } }

// Fuser merges lexical hits and vector candidates into a shortlist.
type Fuser struct {
	cfg Config
}

// New creates a Fuser with defaults of (0.6, 0.4) weights, a 0.25 adaptive
// threshold fraction and a shortlist cap of 20.
func New(opts ...Option) *Fuser {
	cfg := Config{
		Weights:          DefaultWeights,
		MinScoreFraction: 0.25,
		MaxResults:       20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Fuser{cfg: cfg}
}

// Weights returns the configured signal weights, for explain payloads.
func (f *Fuser) Weights() Weights {
	return f.cfg.Weights
}

type signals struct {
	lexical    float32
	vector     float32
	hasLexical bool
	hasVector  bool
	exact      bool
}

// Fuse blends the two candidate sets into a ranked shortlist. Ordering is
// by fused score descending, then exact lexical matches first, then concept
// id ascending. Ranks are one-based.
func (f *Fuser) Fuse(lexHits []lexical.Hit, vecHits []index.Candidate) []core.MatchCandidate {
	if len(lexHits) == 0 && len(vecHits) == 0 {
		return nil
	}

	merged := make(map[core.ID]*signals)
	for _, hit := range lexHits {
		merged[hit.ConceptId] = &signals{lexical: hit.Score, hasLexical: true, exact: hit.Exact}
	}
	for _, cand := range vecHits {
		s, ok := merged[cand.ConceptId]
		if !ok {
			s = &signals{}
			merged[cand.ConceptId] = s
		}
		s.vector = cand.Score
		s.hasVector = true
	}

	lexNorm := normalizer(merged, func(s *signals) (float32, bool) { return s.lexical, s.hasLexical })
	vecNorm := normalizer(merged, func(s *signals) (float32, bool) { return s.vector, s.hasVector })

	candidates := make([]core.MatchCandidate, 0, len(merged))
	for id, s := range merged {
		var lex, vec float32
		if s.hasLexical {
			lex = lexNorm(s.lexical)
		}
		if s.hasVector {
			vec = vecNorm(s.vector)
		}
		candidates = append(candidates, core.MatchCandidate{
			ConceptId:    id,
			LexicalScore: s.lexical,
			VectorScore:  s.vector,
			FusedScore:   f.cfg.Weights.Lexical*lex + f.cfg.Weights.Vector*vec,
			LexicalExact: s.exact,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		if candidates[i].LexicalExact != candidates[j].LexicalExact {
			return candidates[i].LexicalExact
		}
		return candidates[i].ConceptId < candidates[j].ConceptId
	})

	threshold := f.cfg.MinScoreFraction * candidates[0].FusedScore
	kept := candidates[:0]
	for _, cand := range candidates {
		if cand.FusedScore < threshold {
			break
		}
		kept = append(kept, cand)
	}
	if f.cfg.MaxResults > 0 && len(kept) > f.cfg.MaxResults {
		kept = kept[:f.cfg.MaxResults]
	}
	for i := range kept {
		kept[i].Rank = i + 1
	}
	return kept
}

// normalizer returns a min-max scaling function over the values present for
// one signal. When every present value is equal, each maps to 1 so a lone
// signal still contributes fully.
func normalizer(merged map[core.ID]*signals, get func(*signals) (float32, bool)) func(float32) float32 {
	first := true
	var lo, hi float32
	for _, s := range merged {
		v, ok := get(s)
		if !ok {
			continue
		}
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if first || hi == lo {
		return func(float32) float32 { return 1 }
	}
	span := hi - lo
	return func(v float32) float32 { return (v - lo) / span }
}
