package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		id1 := IDFromContent("usinage de precision")
		id2 := IDFromContent("usinage de precision")
		assert.Equal(t, id1, id2)
	})

	t.Run("different content different id", func(t *testing.T) {
		id1 := IDFromContent("soudure inox")
		id2 := IDFromContent("soudure aluminium")
		assert.NotEqual(t, id1, id2)
	})
}

func TestChecksumOf(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ChecksumOf("fraisage"), ChecksumOf("fraisage"))
	})

	t.Run("64 hex chars", func(t *testing.T) {
		assert.Len(t, ChecksumOf("fraisage"), 64)
	})

	t.Run("content sensitive", func(t *testing.T) {
		assert.NotEqual(t, ChecksumOf("fraisage"), ChecksumOf("tournage"))
	})
}

func TestConceptSearchText(t *testing.T) {
	c := &Concept{
		Labels: map[string]string{
			"fr": "usinage de précision",
			"en": "precision machining",
		},
		Synonyms: map[string][]string{
			"fr": {"usinage fin"},
		},
		Definition: map[string]string{
			"en": "machining to tight tolerances",
		},
	}

	text := c.SearchText()
	assert.Contains(t, text, "usinage de précision")
	assert.Contains(t, text, "precision machining")
	assert.Contains(t, text, "usinage fin")
	assert.Contains(t, text, "machining to tight tolerances")

	// Language order is sorted, so the concatenation is stable.
	assert.Equal(t, text, c.SearchText())
}

func TestConceptLabel(t *testing.T) {
	c := &Concept{
		Labels: map[string]string{"fr": "forge libre", "en": "open die forging"},
	}

	assert.Equal(t, "forge libre", c.Label("fr"))
	assert.Equal(t, "open die forging", c.Label("en"))
	// Fallback picks the first language in sorted order.
	assert.Equal(t, "open die forging", c.Label("de"))
}

func TestSnapshotStatusString(t *testing.T) {
	assert.Equal(t, "building", SnapshotBuilding.String())
	assert.Equal(t, "ready", SnapshotReady.String())
	assert.Equal(t, "retired", SnapshotRetired.String())
	assert.Equal(t, "unknown", SnapshotStatus(0).String())
}
