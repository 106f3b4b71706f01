package core

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Concept IDs are generated from content so that identical labels map to
// identical identifiers across environments.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChecksumOf computes the content checksum used to decide whether a concept
// needs re-encoding. Identical text always yields an identical checksum.
func ChecksumOf(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Concept is the canonical searchable unit of the catalog. Concepts are
// created and updated by upstream catalog management; the matching core
// only reads them.
type Concept struct {
	Id         ID
	Labels     map[string]string   // language code -> primary label
	Synonyms   map[string][]string // language code -> synonyms
	Definition map[string]string   // language code -> definition text
	Checksum   string              // checksum of SearchText at last write
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SearchText concatenates labels, synonyms and definitions across languages
// in deterministic language order. It is the text that gets encoded and the
// basis of the concept's content checksum.
func (c *Concept) SearchText() string {
	langs := make([]string, 0, len(c.Labels))
	for lang := range c.Labels {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var sb strings.Builder
	for _, lang := range langs {
		if label := c.Labels[lang]; label != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(label)
		}
		for _, syn := range c.Synonyms[lang] {
			if syn == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(syn)
		}
		if def := c.Definition[lang]; def != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(def)
		}
	}
	return sb.String()
}

// Label returns the concept label for lang, falling back to any available
// language in deterministic order.
func (c *Concept) Label(lang string) string {
	if label, ok := c.Labels[lang]; ok && label != "" {
		return label
	}
	langs := make([]string, 0, len(c.Labels))
	for l := range c.Labels {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		if c.Labels[l] != "" {
			return c.Labels[l]
		}
	}
	return ""
}

// EmbeddingRecord holds the stored embedding for one concept under one
// encoder model. The checksum uniquely determines the vector for a given
// model: re-encoding is skipped when the checksum is unchanged.
type EmbeddingRecord struct {
	ConceptId ID
	Vector    []float32
	Checksum  string
	Model     string
	UpdatedAt time.Time
}

// SnapshotStatus is the lifecycle state of an index snapshot.
type SnapshotStatus int

const (
	// SnapshotBuilding marks a snapshot under construction.
	SnapshotBuilding SnapshotStatus = iota + 1
	// SnapshotReady marks the snapshot currently served.
	SnapshotReady
	// SnapshotRetired marks a superseded snapshot kept for rollback.
	SnapshotRetired
)

func (s SnapshotStatus) String() string {
	switch s {
	case SnapshotBuilding:
		return "building"
	case SnapshotReady:
		return "ready"
	case SnapshotRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// IndexSnapshot is the metadata record of one built ANN index version.
// Versions increase monotonically; exactly one snapshot is ready at a time.
type IndexSnapshot struct {
	Version     uint64
	Status      SnapshotStatus
	BuiltAt     time.Time
	VectorCount int
	Model       string
	Path        string // version-tagged artifact file on disk
}

// MatchQuery is the per-request input to the match pipeline.
type MatchQuery struct {
	RequestId      string
	RawText        string
	NormalizedText string
	TenantId       string
	Filters        map[string]string
}

// MatchCandidate is one scored entry of a shortlist.
type MatchCandidate struct {
	ConceptId    ID
	LexicalScore float32
	VectorScore  float32
	FusedScore   float32
	Rank         int
	LexicalExact bool
}

// ActivationRecord gates whether a concept may be surfaced to a tenant.
// Owned by the activation collaborator; the matching core only reads it.
type ActivationRecord struct {
	TenantId  string
	ConceptId ID
	Claimed   bool
}

// QueryLogEntry is the append-only audit record of one match request.
// Entries are never mutated after write.
type QueryLogEntry struct {
	RequestId       string
	NormalizedQuery string
	TenantId        string
	Candidates      []MatchCandidate
	Degraded        bool
	DegradedReason  string
	CacheHit        bool
	IndexVersion    uint64
	Timestamp       time.Time
}
