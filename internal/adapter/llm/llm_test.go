package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
)

func TestGemini_Generate(t *testing.T) {
	var gotKey, gotPath, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris"},{"text":"."}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("secret", "", srv.URL, srv.Client())
	out, err := g.Generate(context.Background(), "capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris.", out)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "capital of France?", gotPrompt)
	assert.Equal(t, "gemini", g.Name())
}

func TestGemini_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	}))
	defer srv.Close()

	_, err := NewGemini("secret", "m", srv.URL, nil).Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = NewGemini("", "m", srv.URL, nil).Generate(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestGemini_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := NewGemini("secret", "m", srv.URL, nil).Generate(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestMistral_Generate(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		gotPrompt = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"mistral-large-latest",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Bonjour"}}]}`))
	}))
	defer srv.Close()

	m := NewMistral("key", "", srv.URL, nil)
	out, err := m.Generate(context.Background(), "say hi")
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, DefaultMistralModel, gotModel)
	assert.Equal(t, "say hi", gotPrompt)
	assert.Equal(t, "mistral", m.Name())
}

func TestMistral_MissingKey(t *testing.T) {
	_, err := NewMistral("", "", "http://127.0.0.1:1", nil).Generate(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestProviders_AlwaysBoth(t *testing.T) {
	cfg := config.DefaultConfig().Generation
	cfg.Gemini.APIKeyEnv = "DOCRAG_TEST_UNSET_GEMINI"
	cfg.Mistral.APIKeyEnv = "DOCRAG_TEST_UNSET_MISTRAL"

	providers := Providers(cfg, nil)
	require.Len(t, providers, 2)
	assert.Equal(t, "gemini", providers[0].Name())
	assert.Equal(t, "mistral", providers[1].Name())
}
