package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/marketlounge/matchcore/encode"
)

// MockEncoder is a test double for encode.Encoder.
// It allows custom behavior injection via function fields.
type MockEncoder struct {
	// EncodeFunc is called by Encode if set.
	// If nil, uses default deterministic behavior.
	EncodeFunc func(ctx context.Context, text string) ([]float32, error)

	// EncodeBatchFunc is called by EncodeBatch if set.
	// If nil, uses default deterministic behavior.
	EncodeBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension of generated vectors. Default 384 when zero.
	Dimension int

	// ModelTag is reported by Model. Default "mock-encoder" when empty.
	ModelTag string

	callCount atomic.Int64
}

var _ encode.Encoder = (*MockEncoder)(nil)

// NewMockEncoder creates a mock encoder with default deterministic behavior.
func NewMockEncoder() *MockEncoder {
	return &MockEncoder{}
}

// Encode generates a deterministic embedding based on text hash.
func (m *MockEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EncodeFunc != nil {
		return m.EncodeFunc(ctx, text)
	}
	return deterministicVector(text, m.dim()), nil
}

// EncodeBatch generates deterministic embeddings for multiple texts.
func (m *MockEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EncodeBatchFunc != nil {
		return m.EncodeBatchFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.dim())
	}
	return vectors, nil
}

// Model returns the configured model tag.
func (m *MockEncoder) Model() string {
	if m.ModelTag != "" {
		return m.ModelTag
	}
	return "mock-encoder"
}

// CallCount returns the number of times any encode method was called.
func (m *MockEncoder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEncoder) Reset() {
	m.callCount.Store(0)
	m.EncodeFunc = nil
	m.EncodeBatchFunc = nil
}

func (m *MockEncoder) dim() int {
	if m.Dimension > 0 {
		return m.Dimension
	}
	return 384
}

// deterministicVector creates a unit-length embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
