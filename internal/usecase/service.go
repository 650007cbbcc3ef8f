package usecase

import (
	"context"
	"strings"

	"docrag/internal/domain"
)

// Service bundles the entry points the CLI and HTTP API call.
type Service struct {
	Ingester  *IngestUseCase
	Retriever *RetrieveUseCase
	Registry  *Registry
	Sessions  *SessionManager
	Tasks     *Tasks
}

// Retrieve answers query in a throwaway session seeded with history, using
// backendName and persona. It returns the outcome and the history after
// the run; on success that is history plus one Assistant turn.
func (s *Service) Retrieve(ctx context.Context, query, backendName string, history []domain.ConversationTurn, persona string, topK int) (domain.Outcome, []domain.ConversationTurn) {
	sess := NewSession(s.Registry)
	sess.ResetHistory(history)
	sess.SetPersona(domain.ParsePersona(persona))

	// An empty name leaves the session unselected so the pipeline reports
	// NoBackendSelected.
	if strings.TrimSpace(backendName) != "" {
		if err := sess.Selection().Select(backendName); err != nil {
			if topK <= 0 {
				topK = s.Retriever.defaultTopK
			}
			out := failure(err)
			s.Retriever.logOutcome(query, backendName, topK, out, 0)
			return out, sess.History()
		}
	}

	out := s.Retriever.Retrieve(ctx, RetrieveRequest{Query: query, TopK: topK}, sess)
	return out, sess.History()
}
