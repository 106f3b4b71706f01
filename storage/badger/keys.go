package badger

import (
	"encoding/binary"

	"github.com/marketlounge/matchcore/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix  = "embrec"
	conceptPrefix    = "conrec"
	activationPrefix = "actrec"
	snapshotPrefix   = "snaprec"
	queryLogPrefix   = "qlogrec"
	queryLogSeq      = "qlogseq"
)

// makeEmbeddingKey generates a key for an embedding record.
// Format: prefix:model:id (id in BigEndian so lexicographic sort works correctly)
func makeEmbeddingKey(model string, id core.ID) []byte {
	prefix := embeddingPrefix + ":" + model + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEmbeddingModelPrefix generates the scan prefix for one model.
func makeEmbeddingModelPrefix(model string) []byte {
	return []byte(embeddingPrefix + ":" + model + ":")
}

// makeConceptKey generates a key for a concept by ID.
func makeConceptKey(id core.ID) []byte {
	prefix := conceptPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// conceptScanPrefix is the prefix covering all concept records.
func conceptScanPrefix() []byte {
	return []byte(conceptPrefix + ":")
}

// makeActivationKey generates a composite key for a tenant activation.
// Format: prefix:tenant:conceptID
func makeActivationKey(tenantId string, id core.ID) []byte {
	prefix := activationPrefix + ":" + tenantId + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeActivationTenantPrefix generates the scan prefix for one tenant.
func makeActivationTenantPrefix(tenantId string) []byte {
	return []byte(activationPrefix + ":" + tenantId + ":")
}

// makeSnapshotKey generates a key for snapshot metadata by version.
func makeSnapshotKey(version uint64) []byte {
	prefix := snapshotPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], version)
	return buf
}

// snapshotScanPrefix is the prefix covering all snapshot records.
func snapshotScanPrefix() []byte {
	return []byte(snapshotPrefix + ":")
}

// makeQueryLogKey generates a composite key for a log entry.
// Format: prefix:timestampMicro:seq — BigEndian so entries sort by time.
func makeQueryLogKey(timestampMicro int64, seq uint64) []byte {
	prefix := queryLogPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestampMicro))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// queryLogScanPrefix is the prefix covering all log entries.
func queryLogScanPrefix() []byte {
	return []byte(queryLogPrefix + ":")
}
