package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/usecase"
)

func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func statsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Store.Stats(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, stats)
	}
}

func listBackendsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, deps.Service.Registry.Names())
	}
}

func ingestHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}

		res, err := deps.Service.Ingester.Ingest(r.Context(), req.Text)
		if err != nil {
			writeFailure(w, err)
			return
		}

		switch res.Status {
		case domain.StatusInserted:
			writeData(w, http.StatusCreated, res)
		case domain.StatusRejected:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "empty_input",
				Message: "document text is empty",
				Details: map[string]interface{}{"doc_count": res.DocCount},
			})
		default:
			writeData(w, http.StatusOK, res)
		}
	}
}

// retrieveHandler is the stateless query entry point: the caller carries
// the history and gets the updated one back.
func retrieveHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req retrieveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}

		out, history := deps.Service.Retrieve(r.Context(), req.Query, req.Backend, req.History, req.Persona, req.TopK)
		writeOutcome(w, out, history)
	}
}

func createSessionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
				return
			}
		}

		sess, err := deps.Service.Sessions.Create(domain.ParsePersona(req.Persona), req.Backend)
		if err != nil {
			writeFailure(w, err)
			return
		}
		deps.Logger.Info("session created", zap.String("session", sess.ID), zap.String("backend", req.Backend))
		writeData(w, http.StatusCreated, toSessionResponse(sess))
	}
}

func getSessionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		writeData(w, http.StatusOK, toSessionResponse(sess))
	}
}

func deleteSessionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := lookupSession(w, r, deps); !ok {
			return
		}
		deps.Service.Sessions.Delete(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func getBackendHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		name, selected := sess.Selection().Current()
		writeData(w, http.StatusOK, backendResponse{Backend: name, Selected: selected, Available: deps.Service.Registry.Names()})
	}
}

func selectBackendHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		var req backendRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}

		if err := sess.Selection().Select(req.Backend); err != nil {
			writeFailure(w, err)
			return
		}
		name, _ := sess.Selection().Current()
		writeData(w, http.StatusOK, backendResponse{Backend: name, Selected: true, Available: deps.Service.Registry.Names()})
	}
}

func setPersonaHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		var req personaRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}
		sess.SetPersona(domain.ParsePersona(req.Persona))
		writeData(w, http.StatusOK, toSessionResponse(sess))
	}
}

func queryHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		var req queryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}

		out := deps.Service.Retriever.Retrieve(r.Context(), usecase.RetrieveRequest{
			Query:          req.Query,
			TopK:           req.TopK,
			RecordQuestion: req.RecordQuestion,
		}, sess)
		writeOutcome(w, out, sess.History())
	}
}

func taskHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		var req taskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}

		var (
			task  = chi.URLParam(r, "task")
			tasks = deps.Service.Tasks
			sel   = sess.Selection()
			out   string
			err   error
		)
		switch task {
		case "summarize":
			out, err = tasks.Summarize(r.Context(), sel, req.Text)
		case "sentiment":
			out, err = tasks.AnalyzeSentiment(r.Context(), sel, req.Text)
		case "answer":
			out, err = tasks.AnswerQuestion(r.Context(), sel, req.Question, req.Context)
		case "code":
			out, err = tasks.GenerateCode(r.Context(), sel, req.Text, req.Language)
		default:
			writeError(w, http.StatusNotFound, "not_found", "unknown task "+task)
			return
		}
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, taskResponse{Task: task, Output: out})
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, deps *Dependencies) (*usecase.Session, bool) {
	sess, err := deps.Service.Sessions.Get(chi.URLParam(r, "id"))
	if errors.Is(err, usecase.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	if err != nil {
		writeFailure(w, err)
		return nil, false
	}
	return sess, true
}

func writeOutcome(w http.ResponseWriter, out domain.Outcome, history []domain.ConversationTurn) {
	status := http.StatusOK
	if out.Status == domain.OutcomeFailed {
		status = statusForKind(out.Kind)
	}
	writeData(w, status, queryResponse{Outcome: out, Sources: toSources(out.Sources), History: history})
}

func toSessionResponse(sess *usecase.Session) sessionResponse {
	backend, _ := sess.Selection().Current()
	history := sess.History()
	if history == nil {
		history = []domain.ConversationTurn{}
	}
	return sessionResponse{
		ID:        sess.ID,
		Persona:   sess.Persona().String(),
		Backend:   backend,
		History:   history,
		CreatedAt: sess.CreatedAt,
	}
}
