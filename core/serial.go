package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for every persisted record type. Field order is part of
// the storage format and must not change between releases.

var (
	// IDMUS serializes entity IDs.
	IDMUS = idMUS{}
	// ConceptMUS serializes catalog concepts.
	ConceptMUS = conceptMUS{}
	// EmbeddingRecordMUS serializes stored embeddings.
	EmbeddingRecordMUS = embeddingRecordMUS{}
	// IndexSnapshotMUS serializes index snapshot metadata.
	IndexSnapshotMUS = indexSnapshotMUS{}
	// ActivationRecordMUS serializes tenant activation records.
	ActivationRecordMUS = activationRecordMUS{}
	// MatchCandidateMUS serializes shortlist candidates.
	MatchCandidateMUS = matchCandidateMUS{}
	// QueryLogEntryMUS serializes audit log entries.
	QueryLogEntryMUS = queryLogEntryMUS{}

	float32SliceMUS   = ord.NewSliceSer[float32](raw.Float32)
	stringSliceMUS    = ord.NewSliceSer[string](ord.String)
	langStringsMUS    = ord.NewMapSer[string, string](ord.String, ord.String)
	langStringListMUS = ord.NewMapSer[string, []string](ord.String, stringSliceMUS)
	candidateSliceMUS = ord.NewSliceSer[MatchCandidate](MatchCandidateMUS)
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int { return varint.Uint64.Marshal(uint64(id), bs) }

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int { return varint.Uint64.Size(uint64(id)) }

func (idMUS) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

func marshalTime(t time.Time, bs []byte) int { return varint.Int64.Marshal(t.UnixMicro(), bs) }

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int { return varint.Int64.Size(t.UnixMicro()) }

func skipTime(bs []byte) (int, error) { return varint.Int64.Skip(bs) }

type conceptMUS struct{}

func (conceptMUS) Marshal(c Concept, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += langStringsMUS.Marshal(c.Labels, bs[n:])
	n += langStringListMUS.Marshal(c.Synonyms, bs[n:])
	n += langStringsMUS.Marshal(c.Definition, bs[n:])
	n += ord.String.Marshal(c.Checksum, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	n += marshalTime(c.UpdatedAt, bs[n:])
	return n
}

func (conceptMUS) Unmarshal(bs []byte) (c Concept, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Labels, n1, err = langStringsMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Synonyms, n1, err = langStringListMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Definition, n1, err = langStringsMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Checksum, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (conceptMUS) Size(c Concept) (size int) {
	size = IDMUS.Size(c.Id)
	size += langStringsMUS.Size(c.Labels)
	size += langStringListMUS.Size(c.Synonyms)
	size += langStringsMUS.Size(c.Definition)
	size += ord.String.Size(c.Checksum)
	size += sizeTime(c.InsertedAt)
	size += sizeTime(c.UpdatedAt)
	return size
}

func (conceptMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	if n1, err = langStringsMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = langStringListMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = langStringsMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = skipTime(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = skipTime(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(r EmbeddingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.ConceptId, bs)
	n += float32SliceMUS.Marshal(r.Vector, bs[n:])
	n += ord.String.Marshal(r.Checksum, bs[n:])
	n += ord.String.Marshal(r.Model, bs[n:])
	n += marshalTime(r.UpdatedAt, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (r EmbeddingRecord, n int, err error) {
	var n1 int
	if r.ConceptId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Checksum, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Model, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (embeddingRecordMUS) Size(r EmbeddingRecord) (size int) {
	size = IDMUS.Size(r.ConceptId)
	size += float32SliceMUS.Size(r.Vector)
	size += ord.String.Size(r.Checksum)
	size += ord.String.Size(r.Model)
	size += sizeTime(r.UpdatedAt)
	return size
}

func (embeddingRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	if n1, err = float32SliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = skipTime(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

type indexSnapshotMUS struct{}

func (indexSnapshotMUS) Marshal(s IndexSnapshot, bs []byte) (n int) {
	n = varint.Uint64.Marshal(s.Version, bs)
	n += varint.Int.Marshal(int(s.Status), bs[n:])
	n += marshalTime(s.BuiltAt, bs[n:])
	n += varint.Int.Marshal(s.VectorCount, bs[n:])
	n += ord.String.Marshal(s.Model, bs[n:])
	n += ord.String.Marshal(s.Path, bs[n:])
	return n
}

func (indexSnapshotMUS) Unmarshal(bs []byte) (s IndexSnapshot, n int, err error) {
	var (
		n1     int
		status int
	)
	if s.Version, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	s.Status = SnapshotStatus(status)
	n += n1
	if s.BuiltAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.VectorCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Model, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Path, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return s, n, nil
}

func (indexSnapshotMUS) Size(s IndexSnapshot) (size int) {
	size = varint.Uint64.Size(s.Version)
	size += varint.Int.Size(int(s.Status))
	size += sizeTime(s.BuiltAt)
	size += varint.Int.Size(s.VectorCount)
	size += ord.String.Size(s.Model)
	size += ord.String.Size(s.Path)
	return size
}

func (indexSnapshotMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = varint.Uint64.Skip(bs); err != nil {
		return
	}
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = skipTime(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

type activationRecordMUS struct{}

func (activationRecordMUS) Marshal(r ActivationRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.TenantId, bs)
	n += IDMUS.Marshal(r.ConceptId, bs[n:])
	n += ord.Bool.Marshal(r.Claimed, bs[n:])
	return n
}

func (activationRecordMUS) Unmarshal(bs []byte) (r ActivationRecord, n int, err error) {
	var n1 int
	if r.TenantId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.ConceptId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Claimed, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (activationRecordMUS) Size(r ActivationRecord) (size int) {
	size = ord.String.Size(r.TenantId)
	size += IDMUS.Size(r.ConceptId)
	size += ord.Bool.Size(r.Claimed)
	return size
}

func (activationRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = IDMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

type matchCandidateMUS struct{}

func (matchCandidateMUS) Marshal(c MatchCandidate, bs []byte) (n int) {
	n = IDMUS.Marshal(c.ConceptId, bs)
	n += raw.Float32.Marshal(c.LexicalScore, bs[n:])
	n += raw.Float32.Marshal(c.VectorScore, bs[n:])
	n += raw.Float32.Marshal(c.FusedScore, bs[n:])
	n += varint.Int.Marshal(c.Rank, bs[n:])
	n += ord.Bool.Marshal(c.LexicalExact, bs[n:])
	return n
}

func (matchCandidateMUS) Unmarshal(bs []byte) (c MatchCandidate, n int, err error) {
	var n1 int
	if c.ConceptId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.LexicalScore, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.VectorScore, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.FusedScore, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Rank, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.LexicalExact, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (matchCandidateMUS) Size(c MatchCandidate) (size int) {
	size = IDMUS.Size(c.ConceptId)
	size += raw.Float32.Size(c.LexicalScore)
	size += raw.Float32.Size(c.VectorScore)
	size += raw.Float32.Size(c.FusedScore)
	size += varint.Int.Size(c.Rank)
	size += ord.Bool.Size(c.LexicalExact)
	return size
}

func (matchCandidateMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		if n1, err = raw.Float32.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

type queryLogEntryMUS struct{}

func (queryLogEntryMUS) Marshal(e QueryLogEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.RequestId, bs)
	n += ord.String.Marshal(e.NormalizedQuery, bs[n:])
	n += ord.String.Marshal(e.TenantId, bs[n:])
	n += candidateSliceMUS.Marshal(e.Candidates, bs[n:])
	n += ord.Bool.Marshal(e.Degraded, bs[n:])
	n += ord.String.Marshal(e.DegradedReason, bs[n:])
	n += ord.Bool.Marshal(e.CacheHit, bs[n:])
	n += varint.Uint64.Marshal(e.IndexVersion, bs[n:])
	n += marshalTime(e.Timestamp, bs[n:])
	return n
}

func (queryLogEntryMUS) Unmarshal(bs []byte) (e QueryLogEntry, n int, err error) {
	var n1 int
	if e.RequestId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if e.NormalizedQuery, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.TenantId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Candidates, n1, err = candidateSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Degraded, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.DegradedReason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.CacheHit, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.IndexVersion, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Timestamp, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return e, n, nil
}

func (queryLogEntryMUS) Size(e QueryLogEntry) (size int) {
	size = ord.String.Size(e.RequestId)
	size += ord.String.Size(e.NormalizedQuery)
	size += ord.String.Size(e.TenantId)
	size += candidateSliceMUS.Size(e.Candidates)
	size += ord.Bool.Size(e.Degraded)
	size += ord.String.Size(e.DegradedReason)
	size += ord.Bool.Size(e.CacheHit)
	size += varint.Uint64.Size(e.IndexVersion)
	size += sizeTime(e.Timestamp)
	return size
}

func (queryLogEntryMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = candidateSliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = varint.Uint64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = skipTime(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}
