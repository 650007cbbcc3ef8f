package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func openTestStore(t *testing.T, path string, dim int) *BoltStore {
	t.Helper()
	s, err := Open(path, Options{Dimension: dim, Metric: domain.MetricCosine, Embedder: "test-model"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func unit(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestBoltStore_IdempotentIngest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 4)

	first, err := s.Ingest(ctx, "Paris is the capital of France.", unit(4, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInserted, first.Status)
	assert.Equal(t, 1, first.DocCount)

	second, err := s.Ingest(ctx, "  Paris is the capital   of France. ", unit(4, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAlreadyPresent, second.Status)
	assert.Equal(t, 1, second.DocCount)
	assert.Equal(t, first.ID, second.ID)

	doc, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, unit(4, 0), doc.Embedding, "the first copy wins")
}

func TestBoltStore_RejectsEmptyText(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 4)

	res, err := s.Ingest(context.Background(), "\n\t ", unit(4, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assert.Equal(t, 0, res.DocCount)
}

func TestBoltStore_DimensionConsistency(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 384)

	_, err := s.Ingest(ctx, "short vector", make([]float32, 383))
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = s.Ingest(ctx, "long vector", make([]float32, 385))
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = s.Search(ctx, make([]float32, 10), 3)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBoltStore_SearchOrderingClampingTies(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 3)

	_, err := s.Ingest(ctx, "tie first", []float32{0, 1, 0})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "closest", []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "tie second", []float32{0, 1, 0})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "opposite", []float32{-1, 0, 0})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0.5, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "closest", results[0].Document.Text)
	assert.Equal(t, "tie first", results[1].Document.Text)

	all, err := s.Search(ctx, []float32{1, 0.5, 0}, 100)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "tie second", all[2].Document.Text)
	assert.Equal(t, "opposite", all[3].Document.Text)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}

	none, err := s.Search(ctx, []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBoltStore_EmptySearch(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 3)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{Dimension: 2, Embedder: "test-model"})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "one", []float32{1, 0})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "two", []float32{0, 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path, 2)

	docs, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "one", docs[0].Text)
	assert.Equal(t, "two", docs[1].Text)
	assert.Equal(t, []float32{0, 1}, docs[1].Embedding)

	res, err := reopened.Ingest(ctx, "one", []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAlreadyPresent, res.Status)

	res, err = reopened.Ingest(ctx, "three", []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInserted, res.Status)
	assert.Equal(t, 3, res.DocCount)

	third, err := reopened.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Greater(t, third.Seq, docs[1].Seq)

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Documents: 3, Dimension: 2, Metric: "cosine", Embedder: "test-model"}, stats)
}

func TestBoltStore_ConcurrentSameText(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 2)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Ingest(ctx, "race", []float32{1, 0})
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

	assert.Equal(t, 1, inserted)
	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestBoltStore_Delete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s := openTestStore(t, path, 2)

	res, err := s.Ingest(ctx, "temporary", []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, res.ID))

	_, err = s.Get(ctx, res.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, res.ID), domain.ErrNotFound))

	again, err := s.Ingest(ctx, "temporary", []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInserted, again.Status)
}

func TestBoltStore_ReadersSeeWholeDocuments(t *testing.T) {
	ctx := context.Background()
	const dim = 8
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), dim)

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
				vec := unit(dim, (w+i)%dim)
				vec[(w+i+1)%dim] = float32(i + 1)
				if _, err := s.Ingest(ctx, fmt.Sprintf("writer %d document %d", w, i), vec); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func(r int) {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				results, err := s.Search(ctx, unit(dim, r%dim), 10)
				if err != nil {
					t.Error(err)
					return
				}
				for _, res := range results {
					assert.NotEmpty(t, res.Document.Text)
					assert.NotZero(t, res.Document.Seq)
					assert.Len(t, res.Document.Embedding, dim)
				}
			}
		}(r)
	}

	writers.Wait()
	close(done)
	readers.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 160, n)
}

func TestBoltStore_FailedWriteLeavesNothingVisible(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.db"), 2)

	kept, err := s.Ingest(ctx, "kept", []float32{1, 0})
	require.NoError(t, err)

	require.NoError(t, s.db.Close())

	_, err = s.Ingest(ctx, "lost", []float32{0, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := s.Search(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].Document.ID)

	_, err = s.Get(ctx, domain.ContentID("lost"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOpen_EmbedderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{Dimension: 2, Embedder: "model-a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, Options{Dimension: 3, Embedder: "model-a"})
	assert.True(t, errors.Is(err, domain.ErrEmbedderMismatch))

	_, err = Open(path, Options{Dimension: 2, Embedder: "model-b"})
	assert.True(t, errors.Is(err, domain.ErrEmbedderMismatch))

	_, err = Open(path, Options{Dimension: 2, Embedder: "model-a", Metric: domain.MetricInnerProduct})
	assert.True(t, errors.Is(err, domain.ErrEmbedderMismatch))

	check, err := CheckMigration(path, Options{Dimension: 2, Embedder: "model-b"})
	require.NoError(t, err)
	assert.True(t, check.NeedsReembed)
	assert.Equal(t, "model-a", check.Stored.Embedder)
}

func TestOpen_UnavailablePath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"), Options{Dimension: 2})
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

type lengthEmbedder struct{}

func (lengthEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}
func (lengthEmbedder) Dimension() int    { return 3 }
func (lengthEmbedder) ModelName() string { return "length-v1" }

func TestReembed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{Dimension: 2, Embedder: "old"})
	require.NoError(t, err)
	for _, text := range []string{"a", "bb", "ccc"} {
		_, err := s.Ingest(ctx, text, []float32{1, 0})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	n, err := Reembed(ctx, path, lengthEmbedder{}, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	migrated := openTestStoreWith(t, path, Options{Dimension: 3, Embedder: "length-v1"})
	docs, err := migrated.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, d := range docs {
		assert.Equal(t, []float32{float32(len(d.Text)), 1, 0}, d.Embedding)
	}
	assert.Equal(t, "length-v1", migrated.Info().Embedder)
	assert.Equal(t, domain.MetricCosine, migrated.Info().Metric)
}

func openTestStoreWith(t *testing.T, path string, opts Options) *BoltStore {
	t.Helper()
	s, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{Dimension: 2, Embedder: "m"})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, strings.Repeat("x", 10), []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, Clear(path))

	reopened := openTestStoreWith(t, path, Options{Dimension: 2, Embedder: "m"})
	n, _ := reopened.Count(ctx)
	assert.Equal(t, 0, n)
}
