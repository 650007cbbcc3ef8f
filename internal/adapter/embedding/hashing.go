package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"docrag/internal/adapter/analyzer"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// HashingModel is the model name recorded in stores built by HashingEmbedder.
const HashingModel = "hashing-v1"

const bigramWeight = 0.5

var _ port.Embedder = (*HashingEmbedder)(nil)

// HashingEmbedder is a local, dependency-free embedder. Each content term
// and adjacent term pair is hashed into one of D signed buckets and the
// result is L2-normalised, so texts sharing terms score high under cosine.
type HashingEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashingEmbedder(dimension int) *HashingEmbedder {
	return &HashingEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}
}

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateInputs(texts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := e.tokenizer.Tokenize(text)

	for _, tok := range tokens {
		e.add(vec, tok, 1)
	}
	for _, bg := range analyzer.Bigrams(tokens) {
		e.add(vec, bg, bigramWeight)
	}

	domain.Normalize(vec)
	return vec
}

// add folds one feature into vec. The top hash bit picks the sign so
// colliding features tend to cancel rather than pile up.
func (e *HashingEmbedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(e.dimension)
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return HashingModel
}

// validateInputs rejects the whole batch if any text is blank, before any
// model work happens.
func validateInputs(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts to embed", domain.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: text %d is blank", domain.ErrEmptyInput, i)
		}
	}
	return nil
}
