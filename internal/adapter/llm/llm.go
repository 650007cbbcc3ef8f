// Package llm holds the generation providers. Each one turns a prompt into
// text and nothing more; error wrapping and timeouts belong to the caller.
package llm

import (
	"errors"
	"net/http"
	"os"

	"docrag/config"
	"docrag/internal/port"
)

var (
	ErrMissingAPIKey = errors.New("API key not configured")
	ErrEmptyResponse = errors.New("empty response")
)

// Providers builds every configured provider. A provider whose API key is
// absent is still returned; it fails each call with ErrMissingAPIKey.
func Providers(cfg config.GenerationConfig, client *http.Client) []port.Provider {
	return []port.Provider{
		NewGemini(os.Getenv(cfg.Gemini.APIKeyEnv), cfg.Gemini.Model, cfg.Gemini.BaseURL, client),
		NewMistral(os.Getenv(cfg.Mistral.APIKeyEnv), cfg.Mistral.Model, cfg.Mistral.BaseURL, client),
	}
}
