package badger

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
)

// QueryLogRepository implements storage.QueryLogRepository for BadgerDB.
// Entries are keyed by (timestamp, sequence) so they sort chronologically
// and never collide even within one microsecond.
type QueryLogRepository struct {
	backend *Backend
	seqOnce sync.Once
	seq     *badger.Sequence
	seqErr  error
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) (*QueryLogRepository, error) {
	return &QueryLogRepository{backend: backend}, nil
}

// Close releases the badger sequence.
func (r *QueryLogRepository) Close() error {
	if r.seq != nil {
		return r.seq.Release()
	}
	return nil
}

func (r *QueryLogRepository) sequence() (*badger.Sequence, error) {
	r.seqOnce.Do(func() {
		r.seq, r.seqErr = r.backend.GetSequence(queryLogSeq)
	})
	return r.seq, r.seqErr
}

// Append writes a log entry. Entries are append-only and never mutated.
func (r *QueryLogRepository) Append(ctx context.Context, entry *core.QueryLogEntry) error {
	seq, err := r.sequence()
	if err != nil {
		return err
	}
	n, err := seq.Next()
	if err != nil {
		return err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeQueryLogKey(entry.Timestamp.UnixMicro(), n)
		if err := tx.Set(key, storage.MarshalQueryLogEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Recent returns up to limit entries, most recent first.
func (r *QueryLogRepository) Recent(ctx context.Context, limit int) ([]*core.QueryLogEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.QueryLogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := queryLogScanPrefix()
		// Seek past the last possible log key, then walk backwards.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}

			var entry *core.QueryLogEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalQueryLogEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)
	return results, err
}
