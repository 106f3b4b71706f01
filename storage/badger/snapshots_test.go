package badger

import (
	"context"
	"testing"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	snap := &core.IndexSnapshot{
		Version:     3,
		Status:      core.SnapshotReady,
		BuiltAt:     time.Now().UTC().Truncate(time.Microsecond),
		VectorCount: 128,
		Model:       "all-MiniLM-L6-v2",
		Path:        "snapshot-00000003.ann",
	}
	require.NoError(t, stores.Snapshots.PutSnapshot(ctx, snap))

	got, err := stores.Snapshots.GetSnapshot(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSnapshotNotFound(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Snapshots.GetSnapshot(context.Background(), 77)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListSnapshotsAscending(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	// Insert out of order; list must come back sorted by version.
	for _, v := range []uint64{5, 1, 3} {
		require.NoError(t, stores.Snapshots.PutSnapshot(ctx, &core.IndexSnapshot{
			Version: v,
			Status:  core.SnapshotReady,
		}))
	}

	snaps, err := stores.Snapshots.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, uint64(1), snaps[0].Version)
	assert.Equal(t, uint64(3), snaps[1].Version)
	assert.Equal(t, uint64(5), snaps[2].Version)
}

func TestDeleteSnapshot(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	require.NoError(t, stores.Snapshots.PutSnapshot(ctx, &core.IndexSnapshot{
		Version: 2, Status: core.SnapshotRetired,
	}))
	require.NoError(t, stores.Snapshots.DeleteSnapshot(ctx, 2))

	_, err = stores.Snapshots.GetSnapshot(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
