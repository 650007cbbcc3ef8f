package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint
// (OpenAI, Mistral's mistral-embed, Ollama).
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// OpenAIOptions configures an OpenAIEmbedder.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // empty means api.openai.com
	Model      string
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" && opts.BaseURL == "" {
		return nil, errors.New("openai embedder: API key not set")
	}
	if opts.Model == "" {
		return nil, errors.New("openai embedder: model not set")
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("openai embedder: invalid dimension %d", opts.Dimension)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = 100
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: batch,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateInputs(texts); err != nil {
		return nil, err
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vecs...)
	}
	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(out) {
			return nil, fmt.Errorf("embeddings response index %d out of range", data.Index)
		}
		v := make([]float32, len(data.Embedding))
		for i, x := range data.Embedding {
			v[i] = float32(x)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d values, configured %d", domain.ErrDimensionMismatch, e.model, len(v), e.dimension)
		}
		domain.Normalize(v)
		out[data.Index] = v
	}

	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("embeddings response missing vector %d", i)
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
