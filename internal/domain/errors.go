package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrUnknownBackend    = errors.New("unknown backend")
	ErrNoBackendSelected = errors.New("no backend selected")
	ErrTimeout           = errors.New("backend call timed out")
	ErrStoreUnavailable  = errors.New("document store unavailable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmbedderMismatch  = errors.New("store was built with a different embedder")
	ErrNotFound          = errors.New("document not found")
)

// BackendFailure wraps any error raised by a generation provider so callers
// see one error shape regardless of which provider is active.
type BackendFailure struct {
	Provider string
	Cause    error
}

func (e *BackendFailure) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Provider, e.Cause)
}

func (e *BackendFailure) Unwrap() error {
	return e.Cause
}

// FailureKind classifies a failed pipeline outcome.
type FailureKind string

const (
	KindNone              FailureKind = ""
	KindEmptyInput        FailureKind = "EmptyInput"
	KindUnknownBackend    FailureKind = "UnknownBackend"
	KindNoBackendSelected FailureKind = "NoBackendSelected"
	KindBackendFailure    FailureKind = "BackendFailure"
	KindTimeout           FailureKind = "Timeout"
	KindStoreUnavailable  FailureKind = "StoreUnavailable"
	KindInternal          FailureKind = "Internal"
)

// KindOf maps an error to its failure kind. Timeouts win over the
// BackendFailure wrapper that usually carries them.
func KindOf(err error) FailureKind {
	var bf *BackendFailure
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrUnknownBackend):
		return KindUnknownBackend
	case errors.Is(err, ErrNoBackendSelected):
		return KindNoBackendSelected
	case errors.As(err, &bf):
		return KindBackendFailure
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrEmbedderMismatch):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// OutcomeStatus is the terminal state of one query.
type OutcomeStatus string

const (
	OutcomeAnswered  OutcomeStatus = "answered"
	OutcomeNoResults OutcomeStatus = "no_results"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is everything a caller ever receives from the retrieval pipeline.
type Outcome struct {
	Status  OutcomeStatus    `json:"status"`
	Answer  string           `json:"answer,omitempty"`
	Kind    FailureKind      `json:"kind,omitempty"`
	Message string           `json:"message,omitempty"`
	Sources []ScoredDocument `json:"-"`
}

func Answered(answer string, sources []ScoredDocument) Outcome {
	return Outcome{Status: OutcomeAnswered, Answer: answer, Sources: sources}
}

func NoResults() Outcome {
	return Outcome{Status: OutcomeNoResults, Message: "No relevant documents found."}
}

func Failed(kind FailureKind, message string) Outcome {
	return Outcome{Status: OutcomeFailed, Kind: kind, Message: message}
}

// Text renders the outcome as a single user-visible string.
func (o Outcome) Text() string {
	switch o.Status {
	case OutcomeAnswered:
		return o.Answer
	case OutcomeNoResults:
		return o.Message
	default:
		return fmt.Sprintf("%s: %s", o.Kind, o.Message)
	}
}
