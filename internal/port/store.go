package port

import (
	"context"

	"docrag/internal/domain"
)

// DocumentStore is a content-addressed collection of embedded documents.
type DocumentStore interface {
	// Ingest stores text with its embedding unless a document with the same
	// content hash already exists.
	Ingest(ctx context.Context, text string, embedding []float32) (domain.IngestResult, error)

	// Search returns up to topK documents, most similar first.
	Search(ctx context.Context, query []float32, topK int) ([]domain.ScoredDocument, error)

	Count(ctx context.Context) (int, error)

	Get(ctx context.Context, id string) (domain.Document, error)

	Delete(ctx context.Context, id string) error

	// List returns every document in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	Stats(ctx context.Context) (domain.Stats, error)

	Close() error
}
