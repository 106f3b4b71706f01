package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	return &VectorRepository{backend: backend}, nil
}

// Close releases resources. VectorRepository has no resources to release.
func (r *VectorRepository) Close() error {
	return nil
}

// Upsert writes an embedding record unless the stored checksum already
// matches: a call with an unchanged checksum is a no-op report, not a rewrite.
func (r *VectorRepository) Upsert(ctx context.Context, rec *core.EmbeddingRecord) (bool, error) {
	if err := core.ValidateVector(rec.Vector, 0); err != nil {
		return false, err
	}

	updated := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(rec.Model, rec.ConceptId)

		existing, err := readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if existing != nil && existing.Checksum == rec.Checksum {
			return nil
		}

		rec.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalEmbeddingRecord(rec)); err != nil {
			return err
		}
		updated = true
		return tx.Commit()
	}, true)

	return updated, err
}

// Get retrieves embedding records by concept ids. Missing ids are reported
// by absence, not by error: bulk reads tolerate partial failure.
func (r *VectorRepository) Get(ctx context.Context, model string, ids ...core.ID) (map[core.ID]*core.EmbeddingRecord, error) {
	result := make(map[core.ID]*core.EmbeddingRecord, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			rec, err := readEmbedding(tx, makeEmbeddingKey(model, id))
			if err != nil {
				return err
			}
			if rec != nil {
				result[id] = rec
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChecksums returns the stored checksum per concept id for a model.
func (r *VectorRepository) GetChecksums(ctx context.Context, model string) (map[core.ID]string, error) {
	result := make(map[core.ID]string)
	err := r.Scan(ctx, model, func(rec *core.EmbeddingRecord) error {
		result[rec.ConceptId] = rec.Checksum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Scan iterates over all embedding records for a model in key order.
func (r *VectorRepository) Scan(ctx context.Context, model string, fn func(*core.EmbeddingRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEmbeddingModelPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var rec *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rec, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if rec == nil {
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Count returns the number of embedding records for a model.
func (r *VectorRepository) Count(ctx context.Context, model string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEmbeddingModelPrefix(model)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readEmbedding reads an embedding record from the transaction.
func readEmbedding(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var rec *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var err error
		rec, err = storage.UnmarshalEmbeddingRecord(val)
		return err
	})
	return rec, err
}
