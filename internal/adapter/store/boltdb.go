package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/adapter/memstore"
	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	bucketDocs    = []byte("docs")
	bucketVectors = []byte("vectors")
	bucketOrder   = []byte("order")
	bucketMeta    = []byte("meta")
)

var _ port.DocumentStore = (*BoltStore)(nil)

// Options describe the embedder a store is opened with.
type Options struct {
	Dimension int
	Metric    domain.Metric
	Embedder  string
	Timeout   time.Duration // file lock wait; zero waits forever
}

// BoltStore is the durable DocumentStore. Every document lives in bbolt and
// is mirrored in an in-memory index that is only touched after commit.
type BoltStore struct {
	db    *bbolt.DB
	info  SchemaInfo
	index *memstore.Index
	mu    sync.Mutex // keeps disk and index writes in the same order
	now   func() time.Time
}

type docMeta struct {
	Text       string `json:"text"`
	IngestedAt int64  `json:"ingested_at"`
	Seq        uint64 `json:"seq"`
}

// Open opens or creates the store at path. A store created by a different
// embedder, dimension or metric is refused with domain.ErrEmbedderMismatch.
func Open(path string, opts Options) (*BoltStore, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", opts.Dimension)
	}

	db, err := openDB(path, opts.Timeout)
	if err != nil {
		return nil, err
	}

	info, err := readSchemaInfo(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if info.Version == 0 {
		metric := opts.Metric
		if metric == "" {
			metric = domain.MetricCosine
		}
		info = SchemaInfo{
			Version:   CurrentSchemaVersion,
			Dimension: opts.Dimension,
			Metric:    metric,
			Embedder:  opts.Embedder,
		}
		if err := db.Update(func(tx *bbolt.Tx) error { return writeSchemaInfo(tx, info) }); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: write schema: %v", domain.ErrStoreUnavailable, err)
		}
	} else if err := info.Compatible(opts); err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{
		db:    db,
		info:  info,
		index: memstore.NewIndex(info.Metric),
		now:   time.Now,
	}

	docs, err := s.loadDocuments()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: load index: %v", domain.ErrStoreUnavailable, err)
	}
	s.index.Reset(docs)

	return s, nil
}

func openDB(path string, timeout time.Duration) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt db: %v", domain.ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketVectors, bucketOrder, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return db, nil
}

func (s *BoltStore) Ingest(ctx context.Context, text string, embedding []float32) (domain.IngestResult, error) {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return domain.IngestResult{Status: domain.StatusRejected, DocCount: s.index.Len()}, nil
	}
	if len(embedding) != s.info.Dimension {
		return domain.IngestResult{}, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.info.Dimension, len(embedding))
	}
	if err := ctx.Err(); err != nil {
		return domain.IngestResult{}, err
	}

	id := domain.ContentID(normalized)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		doc    domain.Document
		exists bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		if docs.Get([]byte(id)) != nil {
			exists = true
			return nil
		}

		order := tx.Bucket(bucketOrder)
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}

		doc = domain.Document{
			ID:         id,
			Text:       normalized,
			Embedding:  append([]float32(nil), embedding...),
			IngestedAt: s.now().UTC(),
			Seq:        seq,
		}

		data, err := json.Marshal(docMeta{Text: doc.Text, IngestedAt: doc.IngestedAt.UnixNano(), Seq: seq})
		if err != nil {
			return err
		}
		if err := docs.Put([]byte(id), data); err != nil {
			return err
		}
		if err := tx.Bucket(bucketVectors).Put([]byte(id), encodeVector(doc.Embedding)); err != nil {
			return err
		}
		return order.Put(seqKey(seq), []byte(id))
	})
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: ingest: %v", domain.ErrStoreUnavailable, err)
	}

	if exists {
		return domain.IngestResult{Status: domain.StatusAlreadyPresent, ID: id, DocCount: s.index.Len()}, nil
	}

	s.index.Put(doc)
	return domain.IngestResult{Status: domain.StatusInserted, ID: id, DocCount: s.index.Len()}, nil
}

func (s *BoltStore) Search(ctx context.Context, query []float32, topK int) ([]domain.ScoredDocument, error) {
	if len(query) != s.info.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.info.Dimension, len(query))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.index.Search(query, topK), nil
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	return s.index.Len(), nil
}

func (s *BoltStore) Get(ctx context.Context, id string) (domain.Document, error) {
	doc, ok := s.index.Get(id)
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		data := docs.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		if err := docs.Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketVectors).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketOrder).Delete(seqKey(meta.Seq))
	})
	if err != nil {
		return err
	}

	s.index.Remove(id)
	return nil
}

func (s *BoltStore) List(ctx context.Context) ([]domain.Document, error) {
	return s.index.Ordered(), nil
}

func (s *BoltStore) Stats(ctx context.Context) (domain.Stats, error) {
	return domain.Stats{
		Documents: s.index.Len(),
		Dimension: s.info.Dimension,
		Metric:    string(s.info.Metric),
		Embedder:  s.info.Embedder,
	}, nil
}

// Info returns the schema the store was opened with.
func (s *BoltStore) Info() SchemaInfo {
	return s.info
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
