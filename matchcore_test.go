package matchcore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/marketlounge/matchcore/encode/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()

	encoder := mock.NewMockEncoder()
	encoder.Dimension = testDim

	opts = append([]EngineOption{
		WithInMemoryStorage(),
		WithEncoder(encoder),
		WithEncoderConfig(encode.NewConfig(encode.WithDimension(testDim))),
	}, opts...)

	engine, err := NewEngine(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func seedEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	_, err := e.PutConcepts(ctx,
		&core.Concept{
			Id:       42,
			Labels:   map[string]string{"fr": "Usinage de précision"},
			Synonyms: map[string][]string{"fr": {"usinage 5 axes"}},
		},
		&core.Concept{
			Id:     17,
			Labels: map[string]string{"fr": "Usinage de pièces complexes"},
		},
	)
	require.NoError(t, err)

	reencoder := e.NewReencoder(nil, io.Discard)
	stats, err := reencoder.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Encoded)

	_, err = e.RebuildIndex(ctx)
	require.NoError(t, err)

	require.NoError(t, e.SetActivation(ctx, &core.ActivationRecord{
		TenantId: "T1", ConceptId: 42, Claimed: true,
	}))
}

func TestEngineEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	result, err := engine.Match(context.Background(), "Usinage de précision", "T1", nil)
	require.NoError(t, err)

	require.NotEmpty(t, result.Shortlist)
	assert.Equal(t, core.ID(42), result.Shortlist[0].ConceptId)
	assert.False(t, result.Explain.Degraded)
	assert.Equal(t, uint64(1), result.Explain.IndexVersion)
	assert.Equal(t, uint64(1), engine.IndexVersion())
}

func TestEngineStartWithEmptyCatalog(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Start(context.Background()))
	assert.Zero(t, engine.IndexVersion())

	// Matching still works, lexically degraded.
	result, err := engine.Match(context.Background(), "usinage", "T1", nil)
	require.NoError(t, err)
	assert.True(t, result.Explain.Degraded)
	assert.Empty(t, result.Shortlist)
}

func TestEngineReencodeIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	stats, err := engine.NewReencoder(nil, io.Discard).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Encoded)
	assert.Equal(t, 2, stats.Skipped)
}

func TestEngineRollback(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	ctx := context.Background()
	v2, err := engine.RebuildIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v2)

	require.NoError(t, engine.RollbackIndex(ctx, 1))
	assert.Equal(t, uint64(1), engine.IndexVersion())
}

func TestEngineEncoderConfigDrivesMatchRetries(t *testing.T) {
	encoder := mock.NewMockEncoder()
	encoder.Dimension = testDim
	encoder.EncodeFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	engine := newTestEngine(t,
		WithEncoder(encoder),
		WithEncoderConfig(encode.NewConfig(
			encode.WithDimension(testDim),
			encode.WithMaxRetries(3),
			encode.WithRetryDelay(time.Millisecond),
		)),
	)

	result, err := engine.Match(context.Background(), "usinage de précision", "T1", nil)
	require.NoError(t, err)
	assert.True(t, result.Explain.Degraded)
	assert.Equal(t, 3, encoder.CallCount(), "retry budget comes from the encoder config")
}

func TestEnginePutConceptsRefreshesLexical(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	ctx := context.Background()
	_, err := engine.PutConcepts(ctx, &core.Concept{
		Id:     7,
		Labels: map[string]string{"fr": "Chaudronnerie industrielle"},
	})
	require.NoError(t, err)
	require.NoError(t, engine.SetActivation(ctx, &core.ActivationRecord{
		TenantId: "T1", ConceptId: 7, Claimed: true,
	}))

	// No embedding exists yet; the lexical path alone must already find it.
	result, err := engine.Match(ctx, "chaudronnerie industrielle", "T1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Shortlist)
	assert.Equal(t, core.ID(7), result.Shortlist[0].ConceptId)
}
