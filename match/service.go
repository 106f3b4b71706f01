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

// Package match orchestrates one query end to end: validation,
// normalization, cache lookup, the lexical and vector signal paths, fusion,
// tenant activation filtering, caching and audit logging. The vector path
// is optional at runtime; when the encoder or the index is down, matching
// degrades to lexical-only instead of failing.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marketlounge/matchcore/activation"
	"github.com/marketlounge/matchcore/cache"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/marketlounge/matchcore/fusion"
	"github.com/marketlounge/matchcore/index"
	"github.com/marketlounge/matchcore/lexical"
	"github.com/marketlounge/matchcore/querylog"
)

// Degradation reasons recorded in explain payloads and audit entries.
const (
	ReasonEncoderUnavailable    = "encoder_unavailable"
	ReasonIndexUnavailable      = "index_unavailable"
	ReasonActivationUnavailable = "activation_unavailable"
)

// Explain carries the how of a result next to the what.
type Explain struct {
	Degraded       bool
	DegradedReason string
	CacheHit       bool
	IndexVersion   uint64
	Weights        fusion.Weights
}

// Result is a ranked shortlist plus the circumstances it was produced under.
type Result struct {
	RequestId string
	Shortlist []core.MatchCandidate
	Explain   Explain
}

// Config holds orchestration settings.
type Config struct {
	// EncodeTimeout bounds one encoding call, retries included.
	EncodeTimeout time.Duration
	// EncodeAttempts is the bounded retry budget for the encoder.
	EncodeAttempts int
	// EncodeRetryDelay is the base backoff delay between attempts.
	EncodeRetryDelay time.Duration
	// TopK is how many neighbors the vector path requests before fusion.
	TopK int

	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Config)

// WithEncodeTimeout bounds the whole encoding step.
func WithEncodeTimeout(d time.Duration) Option { return func(c *Config) { c.EncodeTimeout = d } }

// WithEncodeAttempts sets the encoder retry budget.
func WithEncodeAttempts(n int) Option { return func(c *Config) { c.EncodeAttempts = n } }

// WithEncodeRetryDelay sets the base backoff delay.
func WithEncodeRetryDelay(d time.Duration) Option { return func(c *Config) { c.EncodeRetryDelay = d } }

// WithTopK sets how many vector neighbors are fetched.
func WithTopK(k int) Option { return func(c *Config) { c.TopK = k } }

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option { return func(c *Config) { c.logger = logger } }

// Service matches free text against the concept catalog.
type Service struct {
	cfg     Config
	encoder encode.Encoder
	lex     atomic.Pointer[lexical.Index]
	vectors *index.Manager
	fuser   *fusion.Fuser
	filter  *activation.Filter
	results *cache.ResultCache
	audit   *querylog.Logger
	logger  *slog.Logger
}

// NewService wires the collaborators together. The lexical index starts
// empty; call ReloadLexical with the concept corpus before serving.
func NewService(
	encoder encode.Encoder,
	vectors *index.Manager,
	fuser *fusion.Fuser,
	filter *activation.Filter,
	results *cache.ResultCache,
	audit *querylog.Logger,
	opts ...Option,
) *Service {
	cfg := Config{
		EncodeTimeout:    2 * time.Second,
		EncodeAttempts:   2,
		EncodeRetryDelay: 100 * time.Millisecond,
		TopK:             50,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Service{
		cfg:     cfg,
		encoder: encoder,
		vectors: vectors,
		fuser:   fuser,
		filter:  filter,
		results: results,
		audit:   audit,
		logger:  cfg.logger.With("component", "match"),
	}
	s.lex.Store(lexical.New(nil))
	return s
}

// ReloadLexical swaps in a lexical index built from a fresh corpus snapshot.
// In-flight searches keep using the old one.
func (s *Service) ReloadLexical(concepts []*core.Concept) {
	s.lex.Store(lexical.New(concepts))
}

// Match runs one query for a tenant and returns a ranked, entitlement-
// filtered shortlist.
func (s *Service) Match(ctx context.Context, rawText, tenantId string, filters map[string]string) (*Result, error) {
	if err := core.ValidateQuery(rawText, tenantId); err != nil {
		return nil, err
	}

	normalized := core.NormalizeText(rawText)
	if normalized == "" {
		return nil, fmt.Errorf("%w: query is empty after normalization", core.ErrInvalidQuery)
	}

	requestId := uuid.NewString()
	version := s.vectors.CurrentVersion()
	key := cache.Key(normalized, tenantId, filters, version)

	if shortlist, ok := s.results.Get(key); ok {
		result := &Result{
			RequestId: requestId,
			Shortlist: shortlist,
			Explain: Explain{
				CacheHit:     true,
				IndexVersion: version,
				Weights:      s.fuser.Weights(),
			},
		}
		s.record(ctx, requestId, normalized, tenantId, result)
		return result, nil
	}

	lexHits := s.lex.Load().Search(normalized)

	vecHits, servedVersion, degradedReason := s.vectorCandidates(ctx, normalized)
	if servedVersion != 0 && servedVersion != version {
		// A rebuild published a new snapshot between the cache lookup and the
		// vector search. The shortlist reflects the new index, so it must be
		// cached under the new version's key.
		version = servedVersion
		key = cache.Key(normalized, tenantId, filters, version)
	}

	shortlist := s.fuser.Fuse(lexHits, vecHits)

	shortlist, actDegraded, err := s.filter.Apply(ctx, tenantId, shortlist)
	if err != nil {
		return nil, err
	}
	if actDegraded && degradedReason == "" {
		degradedReason = ReasonActivationUnavailable
	}

	result := &Result{
		RequestId: requestId,
		Shortlist: shortlist,
		Explain: Explain{
			Degraded:       degradedReason != "",
			DegradedReason: degradedReason,
			IndexVersion:   version,
			Weights:        s.fuser.Weights(),
		},
	}

	// A cancelled request must leave no trace: neither a cache entry that
	// was never returned nor an audit row for a response nobody got.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Degraded shortlists are not cached; the next attempt should retry the
	// full pipeline rather than pin a lexical-only result for the TTL.
	if !result.Explain.Degraded {
		s.results.Put(key, shortlist)
	}
	s.record(ctx, requestId, normalized, tenantId, result)
	return result, nil
}

// vectorCandidates runs the semantic path: encode the query, then search
// the current index. Any failure collapses to lexical-only with a reason.
func (s *Service) vectorCandidates(ctx context.Context, normalized string) ([]index.Candidate, uint64, string) {
	encCtx, cancel := context.WithTimeout(ctx, s.cfg.EncodeTimeout)
	defer cancel()

	var vector []float32
	err := encode.RetryWithBackoff(encCtx, func() error {
		var encErr error
		vector, encErr = s.encoder.Encode(encCtx, normalized)
		return encErr
	}, s.cfg.EncodeAttempts, s.cfg.EncodeRetryDelay)
	if err != nil {
		s.logger.Warn("encoder unavailable, matching lexical-only", "error", err)
		return nil, 0, ReasonEncoderUnavailable
	}

	hits, version, err := s.vectors.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		if errors.Is(err, core.ErrIndexUnavailable) {
			s.logger.Warn("no index snapshot available, matching lexical-only")
		} else {
			s.logger.Warn("index search failed, matching lexical-only", "error", err)
		}
		return nil, 0, ReasonIndexUnavailable
	}
	return hits, version, ""
}

func (s *Service) record(ctx context.Context, requestId, normalized, tenantId string, result *Result) {
	if ctx.Err() != nil {
		return
	}
	s.audit.Record(&core.QueryLogEntry{
		RequestId:       requestId,
		NormalizedQuery: normalized,
		TenantId:        tenantId,
		Candidates:      result.Shortlist,
		Degraded:        result.Explain.Degraded,
		DegradedReason:  result.Explain.DegradedReason,
		CacheHit:        result.Explain.CacheHit,
		IndexVersion:    result.Explain.IndexVersion,
	})
}
