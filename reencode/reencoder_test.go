package reencode

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode/mock"
	badgerstore "github.com/marketlounge/matchcore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConcepts(t *testing.T, stores *badgerstore.Stores) []*core.Concept {
	t.Helper()
	concepts := []*core.Concept{
		{Labels: map[string]string{"fr": "Usinage de précision"}},
		{Labels: map[string]string{"fr": "Soudure aéronautique"}},
		{Labels: map[string]string{"fr": "Fraisage CNC"}},
	}
	saved, err := stores.Concepts.PutConcepts(context.Background(), concepts...)
	require.NoError(t, err)
	return saved
}

func TestRunEncodesEverythingFirstTime(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	saved := seedConcepts(t, stores)
	encoder := mock.NewMockEncoder()
	encoder.Dimension = 8

	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, encoder, nil, &out)
	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Encoded)
	assert.Zero(t, stats.Skipped)

	count, err := stores.Vectors.Count(context.Background(), encoder.Model())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Stored checksums mirror the catalog.
	sums, err := stores.Vectors.GetChecksums(context.Background(), encoder.Model())
	require.NoError(t, err)
	for _, concept := range saved {
		assert.Equal(t, concept.Checksum, sums[concept.Id])
	}
}

func TestRunSkipsUnchangedConcepts(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	seedConcepts(t, stores)
	encoder := mock.NewMockEncoder()
	encoder.Dimension = 8

	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, encoder, nil, &out)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	firstCalls := encoder.CallCount()

	// Second run: nothing changed, nothing encoded.
	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
	assert.Zero(t, stats.Encoded)
	assert.Equal(t, firstCalls, encoder.CallCount(), "unchanged concepts never reach the encoder")
	assert.Contains(t, out.String(), "up to date")
}

func TestRunReencodesOnlyChangedConcepts(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	saved := seedConcepts(t, stores)
	encoder := mock.NewMockEncoder()
	encoder.Dimension = 8

	ctx := context.Background()
	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, encoder, nil, &out)
	_, err = r.Run(ctx)
	require.NoError(t, err)

	// Change one label; its checksum moves while the others stay put.
	changed := saved[0]
	changed.Labels["fr"] = "Usinage de très haute précision"
	_, err = stores.Concepts.PutConcepts(ctx, changed)
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Encoded)
	assert.Equal(t, 2, stats.Skipped)
}

func TestRunEmptyCatalog(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, mock.NewMockEncoder(), nil, &out)
	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Contains(t, out.String(), "No concepts")
}

func TestRunSurfacesEncoderFailure(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	seedConcepts(t, stores)
	encoder := mock.NewMockEncoder()
	encoder.EncodeBatchFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("model not loaded")
	}

	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond

	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, encoder, cfg, &out)
	_, err = r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunBatching(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	seedConcepts(t, stores)
	encoder := mock.NewMockEncoder()
	encoder.Dimension = 8

	cfg := DefaultConfig()
	cfg.BatchSize = 1

	var out bytes.Buffer
	r := NewReencoder(stores.Concepts, stores.Vectors, encoder, cfg, &out)
	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Encoded)
	assert.Equal(t, 3, encoder.CallCount(), "one encoder call per batch of one")
}
