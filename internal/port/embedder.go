package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	// Empty or whitespace-only texts fail with domain.ErrEmptyInput.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
