package port

import "context"

// Provider is a text-generation backend.
type Provider interface {
	// Name returns the registry key, e.g. "gemini".
	Name() string

	// Generate returns the model's completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
