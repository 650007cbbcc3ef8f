package llm

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/port"
)

const (
	MistralName           = "mistral"
	DefaultMistralModel   = "mistral-large-latest"
	DefaultMistralBaseURL = "https://api.mistral.ai/v1"
)

var _ port.Provider = (*Mistral)(nil)

// Mistral talks to Mistral's OpenAI-compatible chat completions API.
type Mistral struct {
	client *openai.Client
	model  string
	keySet bool
}

func NewMistral(apiKey, model, baseURL string, client *http.Client) *Mistral {
	if model == "" {
		model = DefaultMistralModel
	}
	if baseURL == "" {
		baseURL = DefaultMistralBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if client != nil {
		cfg.HTTPClient = client
	}

	return &Mistral{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		keySet: apiKey != "",
	}
}

func (m *Mistral) Name() string {
	return MistralName
}

func (m *Mistral) Generate(ctx context.Context, prompt string) (string, error) {
	if !m.keySet {
		return "", ErrMissingAPIKey
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
