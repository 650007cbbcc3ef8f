package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.DocumentStore = (*MemoryStore)(nil)

// MemoryStore is a non-durable DocumentStore used for tests and --ephemeral runs.
type MemoryStore struct {
	mu        sync.Mutex // serialises writers; readers go through the index
	index     *Index
	dimension int
	metric    domain.Metric
	model     string
	seq       uint64
	now       func() time.Time
}

func NewMemoryStore(dimension int, metric domain.Metric, model string) *MemoryStore {
	return &MemoryStore{
		index:     NewIndex(metric),
		dimension: dimension,
		metric:    metric,
		model:     model,
		now:       time.Now,
	}
}

func (s *MemoryStore) Ingest(ctx context.Context, text string, embedding []float32) (domain.IngestResult, error) {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return domain.IngestResult{Status: domain.StatusRejected, DocCount: s.index.Len()}, nil
	}
	if len(embedding) != s.dimension {
		return domain.IngestResult{}, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(embedding))
	}

	id := domain.ContentID(normalized)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index.Get(id); exists {
		return domain.IngestResult{Status: domain.StatusAlreadyPresent, ID: id, DocCount: s.index.Len()}, nil
	}

	s.seq++
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	s.index.Put(domain.Document{
		ID:         id,
		Text:       normalized,
		Embedding:  vec,
		IngestedAt: s.now().UTC(),
		Seq:        s.seq,
	})

	return domain.IngestResult{Status: domain.StatusInserted, ID: id, DocCount: s.index.Len()}, nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, topK int) ([]domain.ScoredDocument, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(query))
	}
	return s.index.Search(query, topK), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	return s.index.Len(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (domain.Document, error) {
	doc, ok := s.index.Get(id)
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index.Get(id); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.index.Remove(id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Document, error) {
	return s.index.Ordered(), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (domain.Stats, error) {
	return domain.Stats{
		Documents: s.index.Len(),
		Dimension: s.dimension,
		Metric:    string(s.metric),
		Embedder:  s.model,
	}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
