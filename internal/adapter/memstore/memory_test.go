package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"docrag/internal/domain"
)

func TestMemoryStore_IdempotentIngest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, domain.MetricCosine, "test")

	first, err := s.Ingest(ctx, "Paris is the capital of France.", []float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Ingest(ctx, "Paris is the capital of France.", []float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}

	if first.Status != domain.StatusInserted || first.DocCount != 1 {
		t.Errorf("expected {inserted 1}, got %+v", first)
	}
	if second.Status != domain.StatusAlreadyPresent || second.DocCount != 1 {
		t.Errorf("expected {already_present 1}, got %+v", second)
	}
}

func TestMemoryStore_RejectsEmptyAndWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, domain.MetricCosine, "test")

	res, err := s.Ingest(ctx, "   ", []float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.StatusRejected {
		t.Errorf("expected rejected, got %s", res.Status)
	}

	_, err = s.Ingest(ctx, "text", []float32{1, 0})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}

	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
}

func TestMemoryStore_SearchOrderingAndTies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, domain.MetricCosine, "test")

	s.Ingest(ctx, "tie-a", []float32{0, 1})
	s.Ingest(ctx, "best", []float32{1, 0})
	s.Ingest(ctx, "tie-b", []float32{0, 1})

	results, err := s.Search(ctx, []float32{1, 0.5}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected top_k clamped to 3, got %d", len(results))
	}
	if results[0].Document.Text != "best" {
		t.Errorf("expected best first, got %s", results[0].Document.Text)
	}
	if results[1].Document.Text != "tie-a" || results[2].Document.Text != "tie-b" {
		t.Errorf("ties must keep insertion order, got %s, %s", results[1].Document.Text, results[2].Document.Text)
	}

	none, err := s.Search(ctx, []float32{1, 0}, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("expected no results for k=0, got %d (%v)", len(none), err)
	}
}

func TestMemoryStore_EmptySearch(t *testing.T) {
	s := NewMemoryStore(2, domain.MetricCosine, "test")
	results, err := s.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("empty store search should not fail: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", results)
	}
}

func TestMemoryStore_ConcurrentSameText(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, domain.MetricCosine, "test")

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Ingest(ctx, "same text", []float32{1, 1})
			if err != nil {
				t.Error(err)
				return
			}
			if res.Status == domain.StatusInserted {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Errorf("expected exactly one insert, got %d", inserted)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, domain.MetricCosine, "test")
	res, _ := s.Ingest(ctx, "gone soon", []float32{1, 0})

	if err := s.Delete(ctx, res.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, res.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(ctx, res.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestMemoryStore_ReadersSeeWholeDocuments(t *testing.T) {
	ctx := context.Background()
	const dim = 4
	s := NewMemoryStore(dim, domain.MetricCosine, "test")

	var (
		writers sync.WaitGroup
		readers sync.WaitGroup
		done    = make(chan struct{})
	)
	for w := 0; w < 8; w++ {
		writers.Add(1)
		go func(w int) {
			defer writers.Done()
			for i := 0; i < 20; i++ {
				vec := make([]float32, dim)
				vec[(w+i)%dim] = float32(i + 1)
				if _, err := s.Ingest(ctx, fmt.Sprintf("writer %d document %d", w, i), vec); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				results, err := s.Search(ctx, []float32{1, 1, 0, 0}, 10)
				if err != nil {
					t.Error(err)
					return
				}
				for _, res := range results {
					if res.Document.Text == "" || len(res.Document.Embedding) != dim || res.Document.Seq == 0 {
						t.Errorf("partial document observed: %+v", res.Document)
					}
				}
			}
		}()
	}

	writers.Wait()
	close(done)
	readers.Wait()

	if n, _ := s.Count(ctx); n != 160 {
		t.Errorf("expected 160 documents, got %d", n)
	}
}
