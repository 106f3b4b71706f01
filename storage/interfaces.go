package storage

import (
	"context"

	"github.com/marketlounge/matchcore/core"
)

// VectorRepository stores one embedding record per concept per encoder model.
// Implementations must be thread-safe and support concurrent access.
type VectorRepository interface {
	// Upsert writes an embedding record. It is idempotent: when a record
	// with the same concept id, model and checksum already exists, nothing
	// is rewritten and updated reports false.
	Upsert(ctx context.Context, rec *core.EmbeddingRecord) (updated bool, err error)

	// Get retrieves embedding records for a model by concept ids.
	// Missing ids are simply absent from the result, not an error.
	Get(ctx context.Context, model string, ids ...core.ID) (map[core.ID]*core.EmbeddingRecord, error)

	// GetChecksums returns the stored checksum per concept id for a model,
	// used to decide which concepts need re-encoding.
	GetChecksums(ctx context.Context, model string) (map[core.ID]string, error)

	// Scan iterates over all embedding records for a model in stable key
	// order, calling fn for each. Iteration stops on the first error from
	// fn. Used by index builds; safe to restart.
	Scan(ctx context.Context, model string, fn func(*core.EmbeddingRecord) error) error

	// Count returns the number of embedding records stored for a model.
	Count(ctx context.Context, model string) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}

// ConceptRepository holds the searchable concept corpus. Catalog management
// collaborators write it; the matching core reads it to build the lexical
// index and to re-encode changed concepts.
type ConceptRepository interface {
	// PutConcepts writes one or more concepts, setting InsertedAt on first
	// write and UpdatedAt always. Content-based ids are generated for
	// concepts with Id zero.
	PutConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error)

	// GetConcept retrieves a single concept by id.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, id core.ID) (*core.Concept, error)

	// GetConcepts retrieves multiple concepts by id.
	// Returns only the concepts that exist (no error for missing ids).
	GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.Concept, error)

	// GetAllConcepts returns the full corpus, used for lexical index builds.
	GetAllConcepts(ctx context.Context) ([]*core.Concept, error)

	// Close closes the repository and releases resources.
	Close() error
}

// ActivationRepository provides read access to tenant entitlement data.
// The records are owned by the activation collaborator; SetActivation
// exists for seeding and tests.
type ActivationRepository interface {
	// GetActivations returns claimed state per concept id for a tenant.
	// A concept absent from the map has no activation record at all.
	GetActivations(ctx context.Context, tenantId string) (map[core.ID]bool, error)

	// SetActivation writes a single activation record.
	SetActivation(ctx context.Context, rec *core.ActivationRecord) error

	// Close closes the repository and releases resources.
	Close() error
}

// SnapshotRepository stores index snapshot metadata records.
type SnapshotRepository interface {
	// PutSnapshot writes a snapshot metadata record keyed by version.
	PutSnapshot(ctx context.Context, snap *core.IndexSnapshot) error

	// GetSnapshot retrieves snapshot metadata by version.
	// Returns ErrNotFound if the version is unknown.
	GetSnapshot(ctx context.Context, version uint64) (*core.IndexSnapshot, error)

	// ListSnapshots returns all snapshot records ordered by ascending version.
	ListSnapshots(ctx context.Context) ([]*core.IndexSnapshot, error)

	// DeleteSnapshot removes a snapshot metadata record.
	DeleteSnapshot(ctx context.Context, version uint64) error

	// Close closes the repository and releases resources.
	Close() error
}

// QueryLogRepository is the append-only audit destination for match requests.
type QueryLogRepository interface {
	// Append writes a log entry. Entries are never mutated after write.
	Append(ctx context.Context, entry *core.QueryLogEntry) error

	// Recent returns up to limit entries, most recent first.
	Recent(ctx context.Context, limit int) ([]*core.QueryLogEntry, error)

	// Close closes the repository and releases resources.
	Close() error
}
