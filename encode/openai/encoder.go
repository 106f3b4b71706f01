package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Encoder implements encode.Encoder using OpenAI-compatible embedding APIs.
type Encoder struct {
	embedder embeddings.Embedder
	model    string
	dim      int
	logger   *slog.Logger
}

var _ encode.Encoder = (*Encoder)(nil)

// NewEncoder creates an encoder using the provided configuration.
//
// Returns encode.Encoder interface to enforce abstraction.
func NewEncoder(config *encode.Config) (encode.Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Encoder{
		embedder: embedder,
		model:    config.Model,
		dim:      config.Dimension,
		logger:   slog.Default().With("component", "openai-encoder"),
	}, nil
}

// Encode generates an embedding vector for a single text string.
func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("encoding single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("encoder call failed", "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrEncodingFailed, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: encoder returned no vectors", core.ErrEncodingFailed)
	}

	vector := encode.NormalizeVector(vectors[0])
	if err := core.ValidateVector(vector, e.dim); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEncodingFailed, err)
	}
	return vector, nil
}

// EncodeBatch generates embedding vectors for multiple texts in a batch.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("encoding texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("encoder batch call failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrEncodingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: vector count mismatch: got %d, want %d",
			core.ErrEncodingFailed, len(vectors), len(texts))
	}

	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized := encode.NormalizeVector(v)
		if err := core.ValidateVector(normalized, e.dim); err != nil {
			return nil, fmt.Errorf("%w: text %d: %v", core.ErrEncodingFailed, i, err)
		}
		out[i] = normalized
	}
	return out, nil
}

// Model returns the model version tag.
func (e *Encoder) Model() string {
	return e.model
}
