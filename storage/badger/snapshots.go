package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
type SnapshotRepository struct {
	backend *Backend
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(backend *Backend) (*SnapshotRepository, error) {
	return &SnapshotRepository{backend: backend}, nil
}

// Close releases resources. SnapshotRepository has no resources to release.
func (r *SnapshotRepository) Close() error {
	return nil
}

// PutSnapshot writes a snapshot metadata record keyed by version.
func (r *SnapshotRepository) PutSnapshot(ctx context.Context, snap *core.IndexSnapshot) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSnapshotKey(snap.Version)
		if err := tx.Set(key, storage.MarshalIndexSnapshot(snap)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSnapshot retrieves snapshot metadata by version.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, version uint64) (*core.IndexSnapshot, error) {
	var result *core.IndexSnapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSnapshotKey(version))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalIndexSnapshot(val)
			return err
		})
	}, false)
	return result, err
}

// ListSnapshots returns all snapshot records ordered by ascending version.
// BigEndian version keys make badger's key order the version order.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context) ([]*core.IndexSnapshot, error) {
	var results []*core.IndexSnapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := snapshotScanPrefix()
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}

			var snap *core.IndexSnapshot
			err := iter.Item().Value(func(val []byte) error {
				var err error
				snap, err = storage.UnmarshalIndexSnapshot(val)
				return err
			})
			if err != nil {
				return err
			}
			if snap != nil {
				results = append(results, snap)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteSnapshot removes a snapshot metadata record.
func (r *SnapshotRepository) DeleteSnapshot(ctx context.Context, version uint64) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSnapshotKey(version)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
