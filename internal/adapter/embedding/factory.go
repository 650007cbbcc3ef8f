package embedding

import (
	"fmt"
	"os"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/port"
)

// New builds the embedder described by cfg, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	var (
		embedder port.Embedder
		err      error
	)

	switch cfg.Provider {
	case "hashing", "":
		embedder = NewHashingEmbedder(cfg.Dimension)
	case "openai":
		embedder, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:    os.Getenv(cfg.APIKeyEnv),
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.CacheSize > 0 {
		embedder = cache.NewCachedEmbedder(embedder, cache.NewEmbeddingCache(cfg.CacheSize))
	}
	return embedder, nil
}
