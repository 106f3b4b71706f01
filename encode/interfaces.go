package encode

import "context"

// Encoder generates embedding vectors from text. For a given model version
// the output is deterministic: the same text always encodes to the same
// vector. Implementations must be thread-safe for concurrent use.
type Encoder interface {
	// Encode generates an embedding vector for a single text string.
	// The returned vector has the configured dimension and unit length.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch generates embeddings for multiple texts in one call.
	// The returned slice is in input order. Batch calls are preferred
	// during index builds and re-encoding for throughput.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the model version tag. Embedding records are keyed by
	// it so vectors from different models never mix in one index.
	Model() string
}
