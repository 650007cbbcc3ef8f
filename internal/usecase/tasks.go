package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docrag/internal/domain"
)

// Tasks are one-shot prompts sent straight to the selected backend,
// without retrieval.
type Tasks struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewTasks(timeout time.Duration, logger *zap.Logger) *Tasks {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tasks{timeout: timeout, logger: logger}
}

func (t *Tasks) Summarize(ctx context.Context, sel *Selection, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyInput
	}
	return t.run(ctx, sel, "summarize", "Summarize the following:\n"+text)
}

func (t *Tasks) AnalyzeSentiment(ctx context.Context, sel *Selection, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyInput
	}
	return t.run(ctx, sel, "sentiment", "Analyze the sentiment of this text:\n"+text)
}

// AnswerQuestion answers from caller-supplied context rather than the store.
func (t *Tasks) AnswerQuestion(ctx context.Context, sel *Selection, question, passage string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrEmptyInput
	}
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s. Give ANSWER for the following question", passage, question)
	return t.run(ctx, sel, "answer", prompt)
}

// GenerateCode asks for code in language, Python when empty.
func (t *Tasks) GenerateCode(ctx context.Context, sel *Selection, request, language string) (string, error) {
	if strings.TrimSpace(request) == "" {
		return "", domain.ErrEmptyInput
	}
	if language == "" {
		language = "Python"
	}
	return t.run(ctx, sel, "code", fmt.Sprintf("Generate %s code for:\n%s", language, request))
}

func (t *Tasks) run(ctx context.Context, sel *Selection, task, prompt string) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := sel.Generate(ctx, prompt)
	backend, _ := sel.Current()
	fields := []zap.Field{
		zap.String("task", task),
		zap.String("backend", backend),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		t.logger.Warn("task", append(fields, zap.String("kind", string(domain.KindOf(err))), zap.Error(err))...)
		return "", err
	}
	t.logger.Info("task", fields...)
	return out, nil
}
