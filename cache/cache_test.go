package cache

import (
	"testing"
	"time"

	"github.com/marketlounge/matchcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("usinage de precision", "T1", map[string]string{"region": "fr", "sector": "industry"}, 3)
	b := Key("usinage de precision", "T1", map[string]string{"sector": "industry", "region": "fr"}, 3)
	assert.Equal(t, a, b, "filter iteration order must not affect the key")
}

func TestKeyVariesWithEveryComponent(t *testing.T) {
	base := Key("usinage de precision", "T1", map[string]string{"region": "fr"}, 3)

	assert.NotEqual(t, base, Key("soudure", "T1", map[string]string{"region": "fr"}, 3))
	assert.NotEqual(t, base, Key("usinage de precision", "T2", map[string]string{"region": "fr"}, 3))
	assert.NotEqual(t, base, Key("usinage de precision", "T1", map[string]string{"region": "de"}, 3))
	assert.NotEqual(t, base, Key("usinage de precision", "T1", nil, 3))
}

func TestKeyIncludesIndexVersion(t *testing.T) {
	// A rebuild changes the version, which orphans every older entry.
	v3 := Key("usinage de precision", "T1", nil, 3)
	v4 := Key("usinage de precision", "T1", nil, 4)
	assert.NotEqual(t, v3, v4)
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	shortlist := []core.MatchCandidate{
		{ConceptId: 42, FusedScore: 0.9, Rank: 1},
		{ConceptId: 17, FusedScore: 0.4, Rank: 2},
	}
	key := Key("usinage de precision", "T1", nil, 1)

	c.Put(key, shortlist)
	c.Wait()

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, shortlist, got)
}

func TestGetMiss(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(Key("fraisage", "T1", nil, 1))
	assert.False(t, ok)
}

func TestEntriesExpire(t *testing.T) {
	c, err := New(WithTTL(20 * time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	key := Key("tournage", "T1", nil, 1)
	c.Put(key, []core.MatchCandidate{{ConceptId: 1, Rank: 1}})
	c.Wait()

	_, ok := c.Get(key)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "entries die after their TTL")
}
