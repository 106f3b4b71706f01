package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// ActivationRepository implements storage.ActivationRepository for BadgerDB.
type ActivationRepository struct {
	backend *Backend
}

var _ storage.ActivationRepository = (*ActivationRepository)(nil)

// NewActivationRepository creates a new ActivationRepository.
func NewActivationRepository(backend *Backend) (*ActivationRepository, error) {
	return &ActivationRepository{backend: backend}, nil
}

// Close releases resources. ActivationRepository has no resources to release.
func (r *ActivationRepository) Close() error {
	return nil
}

// GetActivations returns claimed state per concept id for a tenant.
func (r *ActivationRepository) GetActivations(ctx context.Context, tenantId string) (map[core.ID]bool, error) {
	result := make(map[core.ID]bool)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeActivationTenantPrefix(tenantId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var rec *core.ActivationRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rec, err = storage.UnmarshalActivationRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if rec != nil {
				result[rec.ConceptId] = rec.Claimed
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetActivation writes a single activation record.
func (r *ActivationRepository) SetActivation(ctx context.Context, rec *core.ActivationRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeActivationKey(rec.TenantId, rec.ConceptId)
		if err := tx.Set(key, storage.MarshalActivationRecord(rec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
