package badger

import (
	"context"
	"testing"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func machiningConcept() *core.Concept {
	return &core.Concept{
		Labels: map[string]string{
			"fr": "Usinage de précision",
			"en": "Precision machining",
		},
		Synonyms: map[string][]string{
			"fr": {"usinage 5 axes", "fraisage de précision"},
		},
		Definition: map[string]string{
			"fr": "Fabrication de pièces mécaniques à tolérances serrées.",
		},
	}
}

func TestPutConceptsGeneratesIdAndChecksum(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	saved, err := stores.Concepts.PutConcepts(ctx, machiningConcept())
	require.NoError(t, err)
	require.Len(t, saved, 1)

	concept := saved[0]
	assert.NotZero(t, concept.Id, "id derived from content")
	assert.Equal(t, core.ChecksumOf(concept.SearchText()), concept.Checksum)
	assert.False(t, concept.InsertedAt.IsZero())
	assert.False(t, concept.UpdatedAt.IsZero())

	// Same content produces the same id.
	again, err := stores.Concepts.PutConcepts(ctx, machiningConcept())
	require.NoError(t, err)
	assert.Equal(t, concept.Id, again[0].Id)
}

func TestPutConceptsPreservesInsertedAt(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	first, err := stores.Concepts.PutConcepts(ctx, machiningConcept())
	require.NoError(t, err)
	inserted := first[0].InsertedAt

	update := machiningConcept()
	update.Id = first[0].Id
	second, err := stores.Concepts.PutConcepts(ctx, update)
	require.NoError(t, err)

	assert.Equal(t, inserted, second[0].InsertedAt)
	assert.True(t, !second[0].UpdatedAt.Before(inserted))
}

func TestPutConceptsRejectsEmptyLabels(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Concepts.PutConcepts(context.Background(), &core.Concept{})
	assert.ErrorIs(t, err, core.ErrEmptyConceptLabels)
}

func TestGetConceptNotFound(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Concepts.GetConcept(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetConceptsSkipsMissing(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	saved, err := stores.Concepts.PutConcepts(ctx, machiningConcept())
	require.NoError(t, err)

	got, err := stores.Concepts.GetConcepts(ctx, saved[0].Id, 999999)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, saved[0].Id, got[0].Id)
}

func TestGetAllConcepts(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	welding := &core.Concept{
		Labels: map[string]string{"fr": "Soudure aéronautique"},
	}
	_, err = stores.Concepts.PutConcepts(ctx, machiningConcept(), welding)
	require.NoError(t, err)

	all, err := stores.Concepts.GetAllConcepts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
