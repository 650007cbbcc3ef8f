package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/port"
)

const DefaultTopK = 3

// RetrieveRequest is one question against a session.
type RetrieveRequest struct {
	Query string
	TopK  int // <= 0 means DefaultTopK

	// RecordQuestion records the question as a User turn ahead of the
	// answer, as chat front ends do. Nothing is recorded if generation fails.
	RecordQuestion bool
}

// RetrieveUseCase runs the question-answering pipeline: embed the query,
// search the store, assemble the prompt and generate through the
// session's selected backend.
type RetrieveUseCase struct {
	embedder    port.Embedder
	store       port.DocumentStore
	timeout     time.Duration
	defaultTopK int
	logger      *zap.Logger
}

func NewRetrieveUseCase(embedder port.Embedder, store port.DocumentStore, timeout time.Duration, defaultTopK int, logger *zap.Logger) *RetrieveUseCase {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		embedder:    embedder,
		store:       store,
		timeout:     timeout,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Retrieve never returns an error: every failure, including a panic in a
// collaborator, becomes a Failed outcome. On success exactly one Assistant
// turn is appended to the session history.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, req RetrieveRequest, sess *Session) (out domain.Outcome) {
	start := time.Now()
	topK := req.TopK
	if topK <= 0 {
		topK = u.defaultTopK
	}
	backend, _ := sess.Selection().Current()

	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("retrieve panic", zap.Any("panic", r), zap.Stack("stack"))
			out = domain.Failed(domain.KindInternal, fmt.Sprintf("internal error: %v", r))
		}
		u.logOutcome(req.Query, backend, topK, out, time.Since(start))
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.Failed(domain.KindEmptyInput, "Query cannot be empty.")
	}

	sess.reqMu.Lock()
	defer sess.reqMu.Unlock()

	vecs, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return failure(fmt.Errorf("embed query: %w", err))
	}
	if len(vecs) != 1 {
		return failure(fmt.Errorf("embedder returned %d vectors for one query", len(vecs)))
	}

	results, err := u.store.Search(ctx, vecs[0], topK)
	if err != nil {
		return failure(fmt.Errorf("search: %w", err))
	}
	if len(results) == 0 {
		return domain.NoResults()
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Document.Text
	}
	prompt := Assemble(passages, sess.History(), sess.Persona(), query)

	genCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	answer, err := sess.Selection().Generate(genCtx, prompt)
	if err != nil {
		return failure(err)
	}

	if req.RecordQuestion {
		sess.Append(domain.ConversationTurn{Role: domain.RoleUser, Text: query})
	}
	sess.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Text: answer})
	return domain.Answered(answer, results)
}

func failure(err error) domain.Outcome {
	kind := domain.KindOf(err)
	msg := err.Error()
	switch kind {
	case domain.KindNoBackendSelected:
		msg = "Please select a model before retrieving documents."
	case domain.KindTimeout:
		var bf *domain.BackendFailure
		if errors.As(err, &bf) {
			msg = fmt.Sprintf("backend %s did not answer in time", bf.Provider)
		}
	}
	return domain.Failed(kind, msg)
}

func (u *RetrieveUseCase) logOutcome(query, backend string, topK int, out domain.Outcome, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("query", query),
		zap.String("backend", backend),
		zap.Int("top_k", topK),
		zap.Int("results", len(out.Sources)),
		zap.String("status", string(out.Status)),
		zap.Duration("duration", elapsed),
	}
	switch out.Status {
	case domain.OutcomeFailed:
		fields = append(fields, zap.String("kind", string(out.Kind)), zap.String("error", out.Message))
		u.logger.Warn("retrieve", fields...)
	default:
		u.logger.Info("retrieve", fields...)
	}
}
