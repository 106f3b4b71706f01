package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketlounge/matchcore/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Index artifacts are MUS-encoded files named snapshot-%08d.ann under the
// manager's directory. The layout is dim, count, centroids, then per-list
// ids and vectors. Field order is part of the format.

var (
	vectorMUS     = ord.NewSliceSer[float32](raw.Float32)
	vectorListMUS = ord.NewSliceSer[[]float32](vectorMUS)
	idListMUS     = ord.NewSliceSer[core.ID](core.IDMUS)
)

func artifactName(version uint64) string {
	return fmt.Sprintf("snapshot-%08d.ann", version)
}

func marshalArtifact(idx *ivfIndex) []byte {
	size := varint.Int.Size(idx.dim)
	size += varint.Int.Size(idx.count)
	size += vectorListMUS.Size(idx.centroids)
	size += varint.Int.Size(len(idx.listIds))
	for i := range idx.listIds {
		size += idListMUS.Size(idx.listIds[i])
		size += vectorListMUS.Size(idx.listVecs[i])
	}

	bs := make([]byte, size)
	n := varint.Int.Marshal(idx.dim, bs)
	n += varint.Int.Marshal(idx.count, bs[n:])
	n += vectorListMUS.Marshal(idx.centroids, bs[n:])
	n += varint.Int.Marshal(len(idx.listIds), bs[n:])
	for i := range idx.listIds {
		n += idListMUS.Marshal(idx.listIds[i], bs[n:])
		n += vectorListMUS.Marshal(idx.listVecs[i], bs[n:])
	}
	return bs
}

func unmarshalArtifact(bs []byte) (*ivfIndex, error) {
	idx := &ivfIndex{}
	var (
		n, n1 int
		err   error
	)
	if idx.dim, n, err = varint.Int.Unmarshal(bs); err != nil {
		return nil, err
	}
	if idx.count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if idx.centroids, n1, err = vectorListMUS.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	var lists int
	if lists, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	idx.listIds = make([][]core.ID, lists)
	idx.listVecs = make([][][]float32, lists)
	for i := 0; i < lists; i++ {
		if idx.listIds[i], n1, err = idListMUS.Unmarshal(bs[n:]); err != nil {
			return nil, err
		}
		n += n1
		if idx.listVecs[i], n1, err = vectorListMUS.Unmarshal(bs[n:]); err != nil {
			return nil, err
		}
		n += n1
	}
	return idx, nil
}

// writeArtifact persists the index atomically: write to a temp file in the
// same directory, then rename over the final name.
func writeArtifact(dir string, version uint64, idx *ivfIndex) (string, error) {
	name := artifactName(version)
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating artifact temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(marshalArtifact(idx)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publishing artifact: %w", err)
	}
	return name, nil
}

func readArtifact(dir, name string) (*ivfIndex, error) {
	bs, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", name, err)
	}
	idx, err := unmarshalArtifact(bs)
	if err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", name, err)
	}
	return idx, nil
}
