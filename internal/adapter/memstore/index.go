package memstore

import (
	"sort"
	"sync"

	"docrag/internal/domain"
)

// Index is an exact brute-force vector index over committed documents.
// It is safe for concurrent use; callers add a document only once it is
// fully written so readers never see partial state.
type Index struct {
	mu     sync.RWMutex
	metric domain.Metric
	docs   map[string]domain.Document
}

func NewIndex(metric domain.Metric) *Index {
	return &Index{
		metric: metric,
		docs:   make(map[string]domain.Document),
	}
}

func (x *Index) Put(doc domain.Document) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[doc.ID] = doc
}

func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
}

func (x *Index) Get(id string) (domain.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.docs[id]
	return doc, ok
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Reset replaces the index contents.
func (x *Index) Reset(docs []domain.Document) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs = make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		x.docs[d.ID] = d
	}
}

// Ordered returns all documents by insertion sequence.
func (x *Index) Ordered() []domain.Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.Document, 0, len(x.docs))
	for _, d := range x.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Search scores every document against query and returns the best k.
// Equal scores keep insertion order.
func (x *Index) Search(query []float32, k int) []domain.ScoredDocument {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.docs) == 0 {
		return []domain.ScoredDocument{}
	}

	scores := make([]domain.ScoredDocument, 0, len(x.docs))
	for _, doc := range x.docs {
		scores = append(scores, domain.ScoredDocument{
			Document: doc,
			Score:    x.metric.Score(query, doc.Embedding),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Document.Seq < scores[j].Document.Seq
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k]
}
