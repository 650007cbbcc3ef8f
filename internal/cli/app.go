package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// app is everything one command needs, opened from the loaded config.
type app struct {
	store    *store.BoltStore
	embedder port.Embedder
	service  *usecase.Service
}

func openApp() (*app, error) {
	cfg := GetConfig()

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	metric, err := domain.ParseMetric(cfg.Store.Metric)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath(GetRootDir()), storeOptions(embedder, metric))
	if errors.Is(err, domain.ErrEmbedderMismatch) {
		return nil, fmt.Errorf("%w\nrun 'docrag migrate' to re-embed the stored documents", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	registry, err := usecase.NewRegistry(llm.Providers(cfg.Generation, &http.Client{})...)
	if err != nil {
		st.Close()
		return nil, err
	}

	ingester := usecase.NewIngestUseCase(embedder, st, logger)
	if cfg.Ingest.ChunkWords > 0 {
		ingester.WithSplitter(chunker.NewLineSplitter(cfg.Ingest.ChunkWords, cfg.Ingest.ChunkOverlap))
	}

	svc := &usecase.Service{
		Ingester:  ingester,
		Retriever: usecase.NewRetrieveUseCase(embedder, st, cfg.Generation.Timeout, cfg.Retrieve.TopK, logger),
		Registry:  registry,
		Sessions:  usecase.NewSessionManager(registry, cfg.Server.SessionTTL, 0),
		Tasks:     usecase.NewTasks(cfg.Generation.Timeout, logger),
	}

	return &app{store: st, embedder: embedder, service: svc}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newSession starts a session with the persona and backend from the flags,
// falling back to the configured defaults.
func (a *app) newSession(persona, backend string) (*usecase.Session, error) {
	cfg := GetConfig()
	if persona == "" {
		persona = cfg.Retrieve.Persona
	}
	if backend == "" {
		backend = cfg.Generation.Default
	}
	return a.service.Sessions.Create(domain.ParsePersona(persona), backend)
}

// storeLockTimeout bounds the wait for another docrag process holding the store.
const storeLockTimeout = 2 * time.Second

func storeOptions(embedder port.Embedder, metric domain.Metric) store.Options {
	return store.Options{
		Dimension: embedder.Dimension(),
		Metric:    metric,
		Embedder:  embedder.ModelName(),
		Timeout:   storeLockTimeout,
	}
}
