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

// Package matchcore matches free-text queries against a multilingual
// concept catalog by blending lexical and semantic evidence. Engine is the
// embedding application's single entry point: it owns storage, the
// encoder, the versioned vector index, the result cache and the audit log,
// and exposes the matching service built on top of them.
package matchcore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/marketlounge/matchcore/activation"
	"github.com/marketlounge/matchcore/cache"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/marketlounge/matchcore/encode/openai"
	"github.com/marketlounge/matchcore/fusion"
	"github.com/marketlounge/matchcore/index"
	"github.com/marketlounge/matchcore/match"
	"github.com/marketlounge/matchcore/querylog"
	"github.com/marketlounge/matchcore/reencode"
	"github.com/marketlounge/matchcore/storage"
	"github.com/marketlounge/matchcore/storage/badger"
)

// Engine wires the matching pipeline over one data directory.
type Engine struct {
	stores  *badger.Stores
	encoder encode.Encoder
	manager *index.Manager
	results *cache.ResultCache
	audit   *querylog.Logger
	service *match.Service
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	encoderConfig    *encode.Config
	encoder          encode.Encoder
	inMemory         bool
	activationPolicy *activation.Policy
	fusionOpts       []fusion.Option
	indexOpts        []index.Option
	cacheOpts        []cache.Option
	matchOpts        []match.Option
	logger           *slog.Logger
}

// WithEncoderConfig sets the embedding service configuration.
func WithEncoderConfig(cfg *encode.Config) EngineOption {
	return func(o *engineOptions) { o.encoderConfig = cfg }
}

// WithEncoder injects an encoder, bypassing the OpenAI-compatible client.
// Mainly for tests.
func WithEncoder(enc encode.Encoder) EngineOption {
	return func(o *engineOptions) { o.encoder = enc }
}

// WithInMemoryStorage keeps all data in memory. Mainly for tests.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) { o.inMemory = true }
}

// WithActivationPolicy replaces the default strict activation policy.
func WithActivationPolicy(p activation.Policy) EngineOption {
	return func(o *engineOptions) { o.activationPolicy = &p }
}

// WithFusionOptions forwards options to the fusion scorer.
func WithFusionOptions(opts ...fusion.Option) EngineOption {
	return func(o *engineOptions) { o.fusionOpts = append(o.fusionOpts, opts...) }
}

// WithIndexOptions forwards options to the index manager.
func WithIndexOptions(opts ...index.Option) EngineOption {
	return func(o *engineOptions) { o.indexOpts = append(o.indexOpts, opts...) }
}

// WithCacheOptions forwards options to the result cache.
func WithCacheOptions(opts ...cache.Option) EngineOption {
	return func(o *engineOptions) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// WithMatchOptions forwards options to the match service.
func WithMatchOptions(opts ...match.Option) EngineOption {
	return func(o *engineOptions) { o.matchOpts = append(o.matchOpts, opts...) }
}

// WithLogger sets the engine-wide logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine opens or creates an engine rooted at dataDir. Storage goes
// under dataDir/db, index artifacts under dataDir/index. The previously
// built index snapshot and lexical corpus are loaded when present.
func NewEngine(dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		encoderConfig: encode.DefaultConfig(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var (
		stores *badger.Stores
		err    error
	)
	if options.inMemory {
		stores, err = badger.NewMemoryStores()
	} else {
		stores, err = badger.NewStores(filepath.Join(dataDir, "db"))
	}
	if err != nil {
		return nil, err
	}

	encoder := options.encoder
	if encoder == nil {
		encoder, err = openai.NewEncoder(options.encoderConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
	}

	indexOpts := append([]index.Option{index.WithLogger(options.logger)}, options.indexOpts...)
	manager, err := index.NewManager(stores.Vectors, stores.Snapshots,
		filepath.Join(dataDir, "index"), encoder.Model(), options.encoderConfig.Dimension, indexOpts...)
	if err != nil {
		stores.Close()
		return nil, err
	}

	results, err := cache.New(options.cacheOpts...)
	if err != nil {
		stores.Close()
		return nil, err
	}

	audit, err := querylog.New(stores.QueryLog, querylog.WithLogger(options.logger))
	if err != nil {
		results.Close()
		stores.Close()
		return nil, err
	}

	filterOpts := []activation.Option{activation.WithLogger(options.logger)}
	if options.activationPolicy != nil {
		filterOpts = append(filterOpts, activation.WithPolicy(*options.activationPolicy))
	}

	// The encoder config's retry budget doubles as the match service default;
	// explicit match options still win.
	matchOpts := append([]match.Option{
		match.WithLogger(options.logger),
		match.WithEncodeTimeout(options.encoderConfig.Timeout),
		match.WithEncodeAttempts(options.encoderConfig.MaxRetries),
		match.WithEncodeRetryDelay(options.encoderConfig.RetryDelay),
	}, options.matchOpts...)
	service := match.NewService(
		encoder,
		manager,
		fusion.New(options.fusionOpts...),
		activation.NewFilter(stores.Activations, filterOpts...),
		results,
		audit,
		matchOpts...,
	)

	return &Engine{
		stores:  stores,
		encoder: encoder,
		manager: manager,
		results: results,
		audit:   audit,
		service: service,
		logger:  options.logger,
	}, nil
}

// Start loads the persisted index snapshot and builds the lexical index
// from the stored catalog. Call once before serving queries.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.manager.LoadCurrent(ctx); err != nil {
		return err
	}
	return e.ReloadLexical(ctx)
}

// Close releases every component. The audit logger drains first so
// in-flight entries reach storage before it closes.
func (e *Engine) Close() error {
	if err := e.audit.Close(); err != nil {
		e.logger.Error("error draining audit logger", "err", err)
	}
	e.results.Close()
	if err := e.stores.Close(); err != nil {
		e.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Match runs one query. See match.Service.Match.
func (e *Engine) Match(ctx context.Context, rawText, tenantId string, filters map[string]string) (*match.Result, error) {
	return e.service.Match(ctx, rawText, tenantId, filters)
}

// RebuildIndex builds and publishes the next index snapshot. Invoked by an
// external scheduler or operator, never on a timer of its own.
func (e *Engine) RebuildIndex(ctx context.Context) (uint64, error) {
	return e.manager.Rebuild(ctx)
}

// RollbackIndex re-activates a retained retired snapshot.
func (e *Engine) RollbackIndex(ctx context.Context, version uint64) error {
	return e.manager.Rollback(ctx, version)
}

// IndexVersion returns the currently served index version, zero when none.
func (e *Engine) IndexVersion() uint64 {
	return e.manager.CurrentVersion()
}

// ReloadLexical rebuilds the in-memory lexical index from the catalog.
func (e *Engine) ReloadLexical(ctx context.Context) error {
	concepts, err := e.stores.Concepts.GetAllConcepts(ctx)
	if err != nil {
		return err
	}
	e.service.ReloadLexical(concepts)
	return nil
}

// PutConcepts stores concepts and refreshes the lexical index.
func (e *Engine) PutConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error) {
	saved, err := e.stores.Concepts.PutConcepts(ctx, concepts...)
	if err != nil {
		return nil, err
	}
	return saved, e.ReloadLexical(ctx)
}

// SetActivation stores one tenant activation record.
func (e *Engine) SetActivation(ctx context.Context, rec *core.ActivationRecord) error {
	return e.stores.Activations.SetActivation(ctx, rec)
}

// ConceptRepository exposes the catalog store.
func (e *Engine) ConceptRepository() storage.ConceptRepository {
	return e.stores.Concepts
}

// QueryLogRepository exposes the audit trail reader.
func (e *Engine) QueryLogRepository() storage.QueryLogRepository {
	return e.stores.QueryLog
}

// NewReencoder builds a re-encoding pipeline over the engine's stores.
func (e *Engine) NewReencoder(cfg *reencode.Config, progress io.Writer) *reencode.Reencoder {
	return reencode.NewReencoder(e.stores.Concepts, e.stores.Vectors, e.encoder, cfg, progress)
}
