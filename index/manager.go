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

package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// Config holds index manager settings.
type Config struct {
	// Dir is where artifact files live.
	Dir string
	// Model tags which embedding space the index covers.
	Model string
	// Dimension of every indexed vector.
	Dimension int
	// NumLists is the k-means partition count.
	NumLists int
	// Probes is how many lists a search scans.
	Probes int
	// RetainRetired is how many retired snapshots are kept for rollback.
	RetainRetired int
	// Seed makes partitioning deterministic.
	Seed int64

	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Config)

// WithNumLists sets the k-means partition count.
func WithNumLists(n int) Option { return func(c *Config) { c.NumLists = n } }

// WithProbes sets how many lists each search scans.
func WithProbes(n int) Option { return func(c *Config) { c.Probes = n } }

// WithRetainRetired sets how many retired snapshots survive pruning.
func WithRetainRetired(n int) Option { return func(c *Config) { c.RetainRetired = n } }

// WithSeed sets the partitioning seed.
func WithSeed(seed int64) Option { return func(c *Config) { c.Seed = seed } }

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

type active struct {
	version uint64
	idx     *ivfIndex
}

// Manager owns the lifecycle of versioned index snapshots. Exactly one
// snapshot serves reads at a time; rebuilds prepare the next version off to
// the side and publish it with a single pointer swap, so searches never
// observe a half-built index.
type Manager struct {
	cfg       Config
	vectors   storage.VectorRepository
	snapshots storage.SnapshotRepository
	logger    *slog.Logger

	current    atomic.Pointer[active]
	rebuilding atomic.Bool
}

// NewManager creates a Manager. The artifact directory is created if absent.
func NewManager(vectors storage.VectorRepository, snapshots storage.SnapshotRepository, dir, model string, dimension int, opts ...Option) (*Manager, error) {
	cfg := Config{
		Dir:           dir,
		Model:         model,
		Dimension:     dimension,
		NumLists:      16,
		Probes:        4,
		RetainRetired: 2,
		Seed:          1,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", cfg.Dimension)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	return &Manager{
		cfg:       cfg,
		vectors:   vectors,
		snapshots: snapshots,
		logger:    cfg.logger.With("component", "index"),
	}, nil
}

// CurrentVersion returns the version serving reads, or zero when none is
// loaded. Cache keys embed this value so stale entries die with their index.
func (m *Manager) CurrentVersion() uint64 {
	if cur := m.current.Load(); cur != nil {
		return cur.version
	}
	return 0
}

// Search returns the k nearest stored vectors by inner product. It serves
// from the current snapshot only and returns ErrIndexUnavailable when no
// snapshot has been built or loaded yet.
func (m *Manager) Search(ctx context.Context, vector []float32, k int) ([]Candidate, uint64, error) {
	cur := m.current.Load()
	if cur == nil {
		return nil, 0, core.ErrIndexUnavailable
	}
	if err := core.ValidateVector(vector, m.cfg.Dimension); err != nil {
		return nil, 0, err
	}
	return cur.idx.search(vector, k, m.cfg.Probes), cur.version, nil
}

// Rebuild constructs the next index version from all stored vectors and
// publishes it atomically. Only one rebuild may run at a time; a concurrent
// call gets ErrRebuildInProgress while searches keep hitting the previous
// version throughout.
func (m *Manager) Rebuild(ctx context.Context) (uint64, error) {
	if !m.rebuilding.CompareAndSwap(false, true) {
		return 0, core.ErrRebuildInProgress
	}
	defer m.rebuilding.Store(false)

	version, err := m.nextVersion(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("index rebuild started", "version", version, "model", m.cfg.Model)

	var (
		ids  []core.ID
		vecs [][]float32
	)
	err = m.vectors.Scan(ctx, m.cfg.Model, func(rec *core.EmbeddingRecord) error {
		if len(rec.Vector) != m.cfg.Dimension {
			return fmt.Errorf("concept %d: %w: got %d, want %d",
				rec.ConceptId, core.ErrDimensionMismatch, len(rec.Vector), m.cfg.Dimension)
		}
		ids = append(ids, rec.ConceptId)
		vecs = append(vecs, rec.Vector)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning vectors: %w", err)
	}

	snap := &core.IndexSnapshot{
		Version:     version,
		Status:      core.SnapshotBuilding,
		VectorCount: len(ids),
		Model:       m.cfg.Model,
	}
	if err := m.snapshots.PutSnapshot(ctx, snap); err != nil {
		return 0, fmt.Errorf("recording building snapshot: %w", err)
	}

	idx := buildIVF(ids, vecs, m.cfg.Dimension, m.cfg.NumLists, m.cfg.Seed)
	name, err := writeArtifact(m.cfg.Dir, version, idx)
	if err != nil {
		m.discardBuilding(ctx, version)
		return 0, err
	}

	snap.Status = core.SnapshotReady
	snap.BuiltAt = time.Now().UTC()
	snap.Path = name
	if err := m.snapshots.PutSnapshot(ctx, snap); err != nil {
		m.discardBuilding(ctx, version)
		if rmErr := os.Remove(filepath.Join(m.cfg.Dir, name)); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("removing orphaned artifact failed", "version", version, "error", rmErr)
		}
		return 0, fmt.Errorf("recording ready snapshot: %w", err)
	}

	prev := m.current.Swap(&active{version: version, idx: idx})
	if prev != nil {
		if err := m.retire(ctx, prev.version); err != nil {
			m.logger.Warn("retiring previous snapshot failed", "version", prev.version, "error", err)
		}
	}
	if err := m.prune(ctx); err != nil {
		m.logger.Warn("pruning retired snapshots failed", "error", err)
	}

	m.logger.Info("index rebuild complete", "version", version, "vectors", len(ids))
	return version, nil
}

// Rollback re-activates a retained retired snapshot. The currently active
// snapshot is retired in its place.
func (m *Manager) Rollback(ctx context.Context, version uint64) error {
	snap, err := m.snapshots.GetSnapshot(ctx, version)
	if err != nil {
		return fmt.Errorf("loading snapshot %d: %w", version, err)
	}
	if snap.Status != core.SnapshotRetired {
		return fmt.Errorf("snapshot %d is %s, only retired snapshots can be rolled back to", version, snap.Status)
	}

	idx, err := readArtifact(m.cfg.Dir, snap.Path)
	if err != nil {
		return err
	}

	snap.Status = core.SnapshotReady
	if err := m.snapshots.PutSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("re-activating snapshot %d: %w", version, err)
	}

	prev := m.current.Swap(&active{version: version, idx: idx})
	if prev != nil && prev.version != version {
		if err := m.retire(ctx, prev.version); err != nil {
			m.logger.Warn("retiring replaced snapshot failed", "version", prev.version, "error", err)
		}
	}
	m.logger.Info("rolled back to snapshot", "version", version)
	return nil
}

// LoadCurrent restores the ready snapshot from disk at startup. It is a
// no-op when no ready snapshot exists.
func (m *Manager) LoadCurrent(ctx context.Context) error {
	snaps, err := m.snapshots.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	var ready *core.IndexSnapshot
	for _, snap := range snaps {
		if snap.Status == core.SnapshotReady {
			ready = snap
		}
	}
	if ready == nil {
		return nil
	}

	idx, err := readArtifact(m.cfg.Dir, ready.Path)
	if err != nil {
		return err
	}
	m.current.Store(&active{version: ready.Version, idx: idx})
	m.logger.Info("loaded index snapshot", "version", ready.Version, "vectors", idx.count)
	return nil
}

func (m *Manager) nextVersion(ctx context.Context) (uint64, error) {
	snaps, err := m.snapshots.ListSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshots: %w", err)
	}
	var max uint64
	for _, snap := range snaps {
		if snap.Version > max {
			max = snap.Version
		}
	}
	return max + 1, nil
}

// discardBuilding removes the metadata row of a build that never reached
// ready. A failed rebuild must leave the snapshot history as it found it.
func (m *Manager) discardBuilding(ctx context.Context, version uint64) {
	if err := m.snapshots.DeleteSnapshot(ctx, version); err != nil {
		m.logger.Warn("discarding failed build record", "version", version, "error", err)
	}
}

func (m *Manager) retire(ctx context.Context, version uint64) error {
	snap, err := m.snapshots.GetSnapshot(ctx, version)
	if err != nil {
		return err
	}
	snap.Status = core.SnapshotRetired
	return m.snapshots.PutSnapshot(ctx, snap)
}

// prune removes the oldest retired snapshots beyond the retention count,
// deleting both metadata and artifact files.
func (m *Manager) prune(ctx context.Context) error {
	snaps, err := m.snapshots.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	var retired []*core.IndexSnapshot
	for _, snap := range snaps {
		if snap.Status == core.SnapshotRetired {
			retired = append(retired, snap)
		}
	}
	for len(retired) > m.cfg.RetainRetired {
		victim := retired[0]
		retired = retired[1:]
		if err := m.snapshots.DeleteSnapshot(ctx, victim.Version); err != nil {
			return err
		}
		if victim.Path != "" {
			if err := os.Remove(filepath.Join(m.cfg.Dir, victim.Path)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		m.logger.Debug("pruned retired snapshot", "version", victim.Version)
	}
	return nil
}
