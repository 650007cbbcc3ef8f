package api

import (
	"encoding/json"
	"net/http"

	"docrag/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps every 2xx reply.
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, SuccessResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusForKind maps a failed outcome to an HTTP status.
func statusForKind(kind domain.FailureKind) int {
	switch kind {
	case domain.KindEmptyInput, domain.KindUnknownBackend:
		return http.StatusBadRequest
	case domain.KindNoBackendSelected:
		return http.StatusConflict
	case domain.KindBackendFailure:
		return http.StatusBadGateway
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(kind domain.FailureKind) string {
	switch kind {
	case domain.KindEmptyInput:
		return "empty_input"
	case domain.KindUnknownBackend:
		return "unknown_backend"
	case domain.KindNoBackendSelected:
		return "no_backend_selected"
	case domain.KindBackendFailure:
		return "backend_failure"
	case domain.KindTimeout:
		return "timeout"
	case domain.KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeError(w, statusForKind(kind), errorCode(kind), err.Error())
}
