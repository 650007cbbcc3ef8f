package usecase

import (
	"context"
	"sync"
	"time"

	"docrag/internal/adapter/embedding"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	delay time.Duration
	panic bool

	mu      sync.Mutex
	prompts []string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if p.panic {
		panic("provider exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.reply, p.err
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *fakeProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

// countingEmbedder wraps the hashing embedder and counts calls.
type countingEmbedder struct {
	*embedding.HashingEmbedder
	mu    sync.Mutex
	calls int
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(384)}
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.HashingEmbedder.Embed(ctx, texts)
}

func (e *countingEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

