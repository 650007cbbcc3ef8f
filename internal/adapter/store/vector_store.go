package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

// Vectors are stored as little-endian float32 blobs.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// loadDocuments reads every committed document in insertion order.
func (s *BoltStore) loadDocuments() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		docs, err = readDocuments(tx, s.info.Dimension)
		return err
	})
	return docs, err
}

func readDocuments(tx *bbolt.Tx, dimension int) ([]domain.Document, error) {
	docsBucket := tx.Bucket(bucketDocs)
	vectors := tx.Bucket(bucketVectors)

	var docs []domain.Document
	c := tx.Bucket(bucketOrder).Cursor()
	for k, id := c.First(); k != nil; k, id = c.Next() {
		data := docsBucket.Get(id)
		if data == nil {
			return nil, fmt.Errorf("order entry %x points at missing document %s", k, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}

		vec, err := decodeVector(vectors.Get(id))
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		if dimension > 0 && len(vec) != dimension {
			return nil, fmt.Errorf("document %s: %w: expected %d, got %d", id, domain.ErrDimensionMismatch, dimension, len(vec))
		}

		docs = append(docs, domain.Document{
			ID:         string(id),
			Text:       meta.Text,
			Embedding:  vec,
			IngestedAt: time.Unix(0, meta.IngestedAt).UTC(),
			Seq:        meta.Seq,
		})
	}
	return docs, nil
}
