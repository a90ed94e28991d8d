package library

import (
	"context"
	"fmt"

	"chandler/pkg/llm"
)

// EmbeddingDimensions is the width of the vector columns in the schema.
const EmbeddingDimensions = 1536

// VerifyEmbeddingDimensions probes the embedding model once and errors when
// its vectors do not fit the schema's columns. Run at startup so a
// misconfigured model fails fast instead of on the first insert or search.
func VerifyEmbeddingDimensions(ctx context.Context, embedder llm.EmbeddingClient) error {
	dims, err := llm.ProbeEmbeddingDimensions(ctx, embedder)
	if err != nil {
		return err
	}
	if dims != EmbeddingDimensions {
		return fmt.Errorf("embedding model produces %d dimensions, schema expects %d", dims, EmbeddingDimensions)
	}
	return nil
}
