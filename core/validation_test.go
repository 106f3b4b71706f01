package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuery(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateQuery("usinage de précision", "T1"))
	})

	t.Run("empty text", func(t *testing.T) {
		err := ValidateQuery("", "T1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("oversized text", func(t *testing.T) {
		err := ValidateQuery(strings.Repeat("x", MaxQueryLength+1), "T1")
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("malformed tenant", func(t *testing.T) {
		for _, tenant := range []string{"", "-leading", "has space", strings.Repeat("t", 65)} {
			assert.ErrorIs(t, ValidateQuery("query", tenant), ErrInvalidQuery, "tenant %q", tenant)
		}
	})
}

func TestValidateVector(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateVector([]float32{1, 2, 3}, 3))
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, ValidateVector(nil, 3), ErrEmptyVector)
	})

	t.Run("wrong dimension", func(t *testing.T) {
		assert.ErrorIs(t, ValidateVector([]float32{1, 2}, 3), ErrDimensionMismatch)
	})

	t.Run("dimension unchecked when zero", func(t *testing.T) {
		assert.NoError(t, ValidateVector([]float32{1, 2}, 0))
	})
}

func TestValidateConcept(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateConcept(&Concept{Labels: map[string]string{"fr": "forge"}}))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateConcept(nil), ErrEmptyConceptLabels)
	})

	t.Run("no labels", func(t *testing.T) {
		assert.ErrorIs(t, ValidateConcept(&Concept{}), ErrEmptyConceptLabels)
		assert.ErrorIs(t, ValidateConcept(&Concept{Labels: map[string]string{"fr": ""}}), ErrEmptyConceptLabels)
	})
}
