package activation

import (
	"context"
	"errors"
	"testing"

	"github.com/marketlounge/matchcore/core"
	badgerstore "github.com/marketlounge/matchcore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingActivations struct{}

func (failingActivations) GetActivations(context.Context, string) (map[core.ID]bool, error) {
	return nil, errors.New("activation service timeout")
}

func (failingActivations) SetActivation(context.Context, *core.ActivationRecord) error {
	return errors.New("activation service timeout")
}

func (failingActivations) Close() error { return nil }

func testShortlist() []core.MatchCandidate {
	return []core.MatchCandidate{
		{ConceptId: 42, FusedScore: 0.9, Rank: 1},
		{ConceptId: 17, FusedScore: 0.7, Rank: 2},
		{ConceptId: 99, FusedScore: 0.5, Rank: 3},
	}
}

func seedActivations(t *testing.T, stores *badgerstore.Stores) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, stores.Activations.SetActivation(ctx, &core.ActivationRecord{
		TenantId: "T1", ConceptId: 42, Claimed: true,
	}))
	require.NoError(t, stores.Activations.SetActivation(ctx, &core.ActivationRecord{
		TenantId: "T1", ConceptId: 17, Claimed: false,
	}))
}

func TestStrictModeKeepsOnlyClaimed(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	seedActivations(t, stores)

	f := NewFilter(stores.Activations)
	kept, degraded, err := f.Apply(context.Background(), "T1", testShortlist())
	require.NoError(t, err)
	assert.False(t, degraded)

	// 17 is unclaimed and 99 has no record at all; both are gone.
	require.Len(t, kept, 1)
	assert.Equal(t, core.ID(42), kept[0].ConceptId)
	assert.Equal(t, 1, kept[0].Rank)
}

func TestStrictModeCanEmptyShortlist(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	f := NewFilter(stores.Activations)
	kept, degraded, err := f.Apply(context.Background(), "T1", testShortlist())
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Empty(t, kept, "tenant with no claims sees nothing in strict mode")
}

func TestEmptyTenantPassesThrough(t *testing.T) {
	f := NewFilter(failingActivations{})
	shortlist := testShortlist()

	kept, degraded, err := f.Apply(context.Background(), "", shortlist)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, shortlist, kept)
}

func TestUnavailableDegradesOpen(t *testing.T) {
	f := NewFilter(failingActivations{})
	shortlist := testShortlist()

	kept, degraded, err := f.Apply(context.Background(), "T1", shortlist)
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Equal(t, shortlist, kept, "degrade-open serves the unfiltered shortlist")
}

func TestUnavailableRejects(t *testing.T) {
	f := NewFilter(failingActivations{}, WithPolicy(Policy{
		RequireClaimed: true,
		OnUnavailable:  Reject,
	}))

	_, _, err := f.Apply(context.Background(), "T1", testShortlist())
	assert.ErrorIs(t, err, core.ErrActivationUnavailable)
}

func TestClaimedBoostReordersWithoutRescoring(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	require.NoError(t, stores.Activations.SetActivation(ctx, &core.ActivationRecord{
		TenantId: "T1", ConceptId: 99, Claimed: true,
	}))

	f := NewFilter(stores.Activations, WithPolicy(Policy{
		RequireClaimed: false,
		ClaimedBoost:   true,
	}))

	kept, degraded, err := f.Apply(ctx, "T1", testShortlist())
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, kept, 3)

	assert.Equal(t, core.ID(99), kept[0].ConceptId, "claimed concept moves first")
	assert.Equal(t, float32(0.5), kept[0].FusedScore, "scores stay untouched")
	assert.Equal(t, core.ID(42), kept[1].ConceptId, "relative order otherwise preserved")
	assert.Equal(t, []int{1, 2, 3}, []int{kept[0].Rank, kept[1].Rank, kept[2].Rank})
}

func TestOpenModeWithoutBoostPassesThrough(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	f := NewFilter(stores.Activations, WithPolicy(Policy{RequireClaimed: false}))
	shortlist := testShortlist()

	kept, degraded, err := f.Apply(context.Background(), "T1", shortlist)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, shortlist, kept)
}
