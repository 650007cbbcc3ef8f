package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"docrag/internal/port"
	"docrag/internal/usecase"
)

// Dependencies is everything the handlers need.
type Dependencies struct {
	Service        *usecase.Service
	Store          port.DocumentStore
	Logger         *zap.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter configures all routes and middleware.
func NewRouter(deps *Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 90 * time.Second
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(deps))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", statsHandler(deps))
		r.Get("/backends", listBackendsHandler(deps))
		r.Post("/documents", ingestHandler(deps))
		r.Post("/retrieve", retrieveHandler(deps))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", createSessionHandler(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getSessionHandler(deps))
				r.Delete("/", deleteSessionHandler(deps))
				r.Get("/backend", getBackendHandler(deps))
				r.Put("/backend", selectBackendHandler(deps))
				r.Put("/persona", setPersonaHandler(deps))
				r.Post("/query", queryHandler(deps))
				r.Post("/tasks/{task}", taskHandler(deps))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
