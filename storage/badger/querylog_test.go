package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogAppendRecent(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, stores.QueryLog.Append(ctx, &core.QueryLogEntry{
			RequestId:       fmt.Sprintf("req-%d", i),
			NormalizedQuery: "usinage de precision",
			TenantId:        "T1",
			IndexVersion:    3,
			Timestamp:       base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	recent, err := stores.QueryLog.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "req-4", recent[0].RequestId, "most recent first")
	assert.Equal(t, "req-3", recent[1].RequestId)
	assert.Equal(t, "req-2", recent[2].RequestId)
}

func TestQueryLogRecentFewerThanLimit(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	require.NoError(t, stores.QueryLog.Append(ctx, &core.QueryLogEntry{
		RequestId: "only", NormalizedQuery: "fraisage", TenantId: "T1",
	}))

	recent, err := stores.QueryLog.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "only", recent[0].RequestId)
	assert.False(t, recent[0].Timestamp.IsZero(), "append stamps missing timestamps")
}

func TestQueryLogRecentEmpty(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	recent, err := stores.QueryLog.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	recent, err = stores.QueryLog.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestQueryLogSameTimestampNoCollision(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, stores.QueryLog.Append(ctx, &core.QueryLogEntry{
			RequestId: fmt.Sprintf("dup-%d", i),
			TenantId:  "T1",
			Timestamp: ts,
		}))
	}

	recent, err := stores.QueryLog.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3, "sequence suffix keeps identical timestamps distinct")
}
