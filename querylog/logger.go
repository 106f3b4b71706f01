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

// Package querylog writes match audit entries off the request path. A
// bounded worker pool absorbs bursts; when it is saturated entries are
// dropped and counted rather than ever blocking a match.
package querylog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
	"github.com/panjf2000/ants/v2"
)

// Config holds async logger settings.
type Config struct {
	// Workers is the pool size.
	Workers int
	// AppendTimeout bounds each storage write.
	AppendTimeout time.Duration
	// DrainTimeout bounds Close waiting for in-flight writes.
	DrainTimeout time.Duration

	logger *slog.Logger
}

// Option configures a Logger.
type Option func(*Config)

// WithWorkers sets the pool size.
func WithWorkers(n int) Option { return func(c *Config) { c.Workers = n } }

// WithAppendTimeout bounds each storage write.
func WithAppendTimeout(d time.Duration) Option { return func(c *Config) { c.AppendTimeout = d } }

// WithDrainTimeout bounds how long Close waits for in-flight writes.
func WithDrainTimeout(d time.Duration) Option { return func(c *Config) { c.DrainTimeout = d } }

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option { return func(c *Config) { c.logger = logger } }

// Logger records query audit entries asynchronously.
type Logger struct {
	cfg     Config
	pool    *ants.Pool
	repo    storage.QueryLogRepository
	logger  *slog.Logger
	dropped atomic.Int64
}

// New creates a Logger over the given repository.
func New(repo storage.QueryLogRepository, opts ...Option) (*Logger, error) {
	cfg := Config{
		Workers:       4,
		AppendTimeout: 2 * time.Second,
		DrainTimeout:  5 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Logger{
		cfg:    cfg,
		pool:   pool,
		repo:   repo,
		logger: cfg.logger.With("component", "querylog"),
	}, nil
}

// Record submits an entry for asynchronous persistence. It never blocks and
// never fails the caller; a saturated pool or a failed write only bumps the
// drop counter.
func (l *Logger) Record(entry *core.QueryLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	err := l.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.AppendTimeout)
		defer cancel()
		if err := l.repo.Append(ctx, entry); err != nil {
			l.dropped.Add(1)
			l.logger.Warn("query log append failed", "request_id", entry.RequestId, "error", err)
		}
	})
	if err != nil {
		l.dropped.Add(1)
	}
}

// Dropped reports how many entries were lost to saturation or write errors.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close drains in-flight writes, bounded by the drain timeout.
func (l *Logger) Close() error {
	return l.pool.ReleaseTimeout(l.cfg.DrainTimeout)
}
