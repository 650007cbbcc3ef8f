package api

import (
	"time"

	"docrag/internal/domain"
)

type ingestRequest struct {
	Text string `json:"text"`
}

type createSessionRequest struct {
	Persona string `json:"persona"`
	Backend string `json:"backend"`
}

type sessionResponse struct {
	ID        string                    `json:"id"`
	Persona   string                    `json:"persona"`
	Backend   string                    `json:"backend,omitempty"`
	History   []domain.ConversationTurn `json:"history"`
	CreatedAt time.Time                 `json:"created_at"`
}

type backendRequest struct {
	Backend string `json:"backend"`
}

type backendResponse struct {
	Backend   string   `json:"backend,omitempty"`
	Selected  bool     `json:"selected"`
	Available []string `json:"available"`
}

type personaRequest struct {
	Persona string `json:"persona"`
}

type queryRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	RecordQuestion bool   `json:"record_question"`
}

type sourceResponse struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type queryResponse struct {
	Outcome domain.Outcome            `json:"outcome"`
	Sources []sourceResponse          `json:"sources,omitempty"`
	History []domain.ConversationTurn `json:"history,omitempty"`
}

type retrieveRequest struct {
	Query   string                    `json:"query"`
	Backend string                    `json:"backend"`
	History []domain.ConversationTurn `json:"history"`
	Persona string                    `json:"persona"`
	TopK    int                       `json:"top_k"`
}

type taskRequest struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	Context  string `json:"context"`
	Language string `json:"language"`
}

type taskResponse struct {
	Task   string `json:"task"`
	Output string `json:"output"`
}

func toSources(docs []domain.ScoredDocument) []sourceResponse {
	out := make([]sourceResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, sourceResponse{ID: d.Document.ID, Text: d.Document.Text, Score: d.Score})
	}
	return out
}
