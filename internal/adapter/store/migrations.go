package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyDimension     = []byte("dimension")
	keyMetric        = []byte("metric")
	keyEmbedder      = []byte("embedder")
)

// SchemaInfo is what the meta bucket records about a store.
type SchemaInfo struct {
	Version   int           `json:"version"`
	Dimension int           `json:"dimension"`
	Metric    domain.Metric `json:"metric"`
	Embedder  string        `json:"embedder"`
}

// Compatible reports whether a store with this schema may be used with opts.
func (info SchemaInfo) Compatible(opts Options) error {
	if info.Version > CurrentSchemaVersion {
		return fmt.Errorf("%w: database created by newer version (v%d > v%d)", domain.ErrStoreUnavailable, info.Version, CurrentSchemaVersion)
	}
	if info.Dimension != opts.Dimension {
		return fmt.Errorf("%w: store dimension %d, embedder dimension %d", domain.ErrEmbedderMismatch, info.Dimension, opts.Dimension)
	}
	if opts.Embedder != "" && info.Embedder != opts.Embedder {
		return fmt.Errorf("%w: store embedder %q, configured %q", domain.ErrEmbedderMismatch, info.Embedder, opts.Embedder)
	}
	if opts.Metric != "" && info.Metric != opts.Metric {
		return fmt.Errorf("%w: store metric %s, configured %s", domain.ErrEmbedderMismatch, info.Metric, opts.Metric)
	}
	return nil
}

func readSchemaInfo(db *bbolt.DB) (SchemaInfo, error) {
	var info SchemaInfo
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if data := b.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &info.Version); err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
		}
		if data := b.Get(keyDimension); data != nil {
			d, err := strconv.Atoi(string(data))
			if err != nil {
				return fmt.Errorf("dimension: %w", err)
			}
			info.Dimension = d
		}
		info.Metric = domain.Metric(b.Get(keyMetric))
		info.Embedder = string(b.Get(keyEmbedder))
		return nil
	})
	if err != nil {
		return info, fmt.Errorf("%w: read schema: %v", domain.ErrStoreUnavailable, err)
	}
	return info, nil
}

func writeSchemaInfo(tx *bbolt.Tx, info SchemaInfo) error {
	b := tx.Bucket(bucketMeta)

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}
	if err := b.Put(keyDimension, []byte(strconv.Itoa(info.Dimension))); err != nil {
		return err
	}
	if err := b.Put(keyMetric, []byte(info.Metric)); err != nil {
		return err
	}
	return b.Put(keyEmbedder, []byte(info.Embedder))
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	Stored       SchemaInfo
	NeedsReembed bool
	Reason       string
}

// CheckMigration reports whether the store at path can be opened with opts
// as is, or needs Reembed first.
func CheckMigration(path string, opts Options) (*MigrationResult, error) {
	db, err := openDB(path, opts.Timeout)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	info, err := readSchemaInfo(db)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{Stored: info}
	if info.Version == 0 {
		result.Reason = "empty store"
		return result, nil
	}
	if err := info.Compatible(opts); err != nil {
		result.NeedsReembed = true
		result.Reason = err.Error()
	}
	return result, nil
}

// Reembed re-embeds every document in the store at path with embedder and
// records the new embedder. All vectors are replaced in one transaction, so
// an interrupted migration leaves the old store intact. The store must not
// be open elsewhere.
func Reembed(ctx context.Context, path string, embedder port.Embedder, metric domain.Metric, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	db, err := openDB(path, 5*time.Second)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	info, err := readSchemaInfo(db)
	if err != nil {
		return 0, err
	}
	if info.Version > CurrentSchemaVersion {
		return 0, info.Compatible(Options{})
	}
	if metric == "" {
		metric = info.Metric
	}
	if metric == "" {
		metric = domain.MetricCosine
	}

	var docs []domain.Document
	if err := db.View(func(tx *bbolt.Tx) error {
		var err error
		docs, err = readDocuments(tx, 0)
		return err
	}); err != nil {
		return 0, fmt.Errorf("%w: read documents: %v", domain.ErrStoreUnavailable, err)
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}
		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed documents %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	newInfo := SchemaInfo{
		Version:   CurrentSchemaVersion,
		Dimension: embedder.Dimension(),
		Metric:    metric,
		Embedder:  embedder.ModelName(),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, d := range docs {
			if len(vectors[i]) != newInfo.Dimension {
				return fmt.Errorf("%w: document %s got %d values", domain.ErrDimensionMismatch, d.ID, len(vectors[i]))
			}
			if err := b.Put([]byte(d.ID), encodeVector(vectors[i])); err != nil {
				return err
			}
		}
		return writeSchemaInfo(tx, newInfo)
	})
	if err != nil {
		return 0, err
	}

	return len(docs), nil
}

// Clear removes every document but keeps the schema, so the store can be
// refilled with the same embedder.
func Clear(path string) error {
	db, err := openDB(path, 5*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDocs, bucketVectors, bucketOrder} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
