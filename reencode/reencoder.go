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

// Package reencode refreshes stored embeddings after catalog changes. Only
// concepts whose content checksum differs from the stored embedding record
// are sent to the encoder, so an unchanged catalog is a near no-op.
package reencode

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/marketlounge/matchcore/storage"
)

// Config holds re-encoding settings.
type Config struct {
	// BatchSize is how many concepts go to the encoder per call.
	BatchSize int

	// ReportInterval is how often progress is reported, in concepts.
	ReportInterval int

	// MaxRetries bounds encoder retry attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      64,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarizes one re-encoding run.
type Stats struct {
	Total   int
	Skipped int
	Encoded int
}

// Reencoder walks the concept catalog and refreshes stale embeddings.
type Reencoder struct {
	concepts storage.ConceptRepository
	vectors  storage.VectorRepository
	encoder  encode.Encoder
	config   *Config
	progress io.Writer
}

// NewReencoder creates a re-encoder.
// progress: where to write progress output (typically os.Stderr).
func NewReencoder(concepts storage.ConceptRepository, vectors storage.VectorRepository, encoder encode.Encoder, config *Config, progress io.Writer) *Reencoder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reencoder{
		concepts: concepts,
		vectors:  vectors,
		encoder:  encoder,
		config:   config,
		progress: progress,
	}
}

// Run re-encodes every concept whose checksum no longer matches its stored
// embedding for the current model. Unchanged concepts are skipped.
func (r *Reencoder) Run(ctx context.Context) (*Stats, error) {
	model := r.encoder.Model()

	all, err := r.concepts.GetAllConcepts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	stats := &Stats{Total: len(all)}
	if len(all) == 0 {
		fmt.Fprintf(r.progress, "No concepts in catalog (0 concepts)\n")
		return stats, nil
	}

	stored, err := r.vectors.GetChecksums(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("loading stored checksums: %w", err)
	}

	var pending []*core.Concept
	for _, concept := range all {
		if stored[concept.Id] == concept.Checksum {
			stats.Skipped++
			continue
		}
		pending = append(pending, concept)
	}

	if len(pending) == 0 {
		fmt.Fprintf(r.progress, "All %d concepts up to date\n", stats.Total)
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Re-encoding %d of %d concepts (batch size: %d)\n",
		len(pending), stats.Total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(pending), r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < len(pending); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := r.processBatch(ctx, model, batch); err != nil {
			return stats, err
		}
		stats.Encoded += len(batch)
		tracker.Increment(len(batch))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-encoding complete. Encoded %d, skipped %d of %d concepts in %v\n",
		stats.Encoded, stats.Skipped, stats.Total, elapsed.Round(time.Second))
	return stats, nil
}

func (r *Reencoder) processBatch(ctx context.Context, model string, batch []*core.Concept) error {
	texts := make([]string, len(batch))
	for i, concept := range batch {
		texts[i] = concept.SearchText()
	}

	var vectors [][]float32
	err := encode.RetryWithBackoff(ctx, func() error {
		var encErr error
		vectors, encErr = r.encoder.EncodeBatch(ctx, texts)
		return encErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("encoder returned %d vectors for %d concepts", len(vectors), len(batch))
	}

	for i, concept := range batch {
		_, err := r.vectors.Upsert(ctx, &core.EmbeddingRecord{
			ConceptId: concept.Id,
			Vector:    vectors[i],
			Checksum:  concept.Checksum,
			Model:     model,
		})
		if err != nil {
			return fmt.Errorf("storing embedding for concept %d: %w", concept.Id, err)
		}
	}
	return nil
}
