package cli

import (
	"context"
	"testing"
	"time"

	"docrag/internal/domain"
	"docrag/internal/usecase"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 7*time.Second, "3m7s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("expected short id unchanged, got %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("expected 12 chars, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 500); got != "short" {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if got := truncateRunes("ééééé", 3); got != "ééé..." {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}

type echoProvider struct{ name string }

func (p echoProvider) Name() string { return p.name }
func (p echoProvider) Generate(_ context.Context, prompt string) (string, error) {
	return prompt, nil
}

func TestChatCommand(t *testing.T) {
	registry, err := usecase.NewRegistry(echoProvider{"gemini"}, echoProvider{"mistral"})
	if err != nil {
		t.Fatal(err)
	}
	sess := usecase.NewSession(registry)

	if quit := chatCommand(sess, "/backend Mistral"); quit {
		t.Fatal("/backend should not quit")
	}
	if name, ok := sess.Selection().Current(); !ok || name != "mistral" {
		t.Errorf("expected mistral selected, got %q", name)
	}

	chatCommand(sess, "/backend claude")
	if name, _ := sess.Selection().Current(); name != "mistral" {
		t.Errorf("unknown backend must keep the selection, got %q", name)
	}

	chatCommand(sess, "/persona technical")
	if sess.Persona() != domain.PersonaTechnical {
		t.Errorf("expected Technical persona, got %s", sess.Persona())
	}

	sess.Append(domain.ConversationTurn{Role: domain.RoleUser, Text: "hi"})
	chatCommand(sess, "/reset")
	if len(sess.History()) != 0 {
		t.Errorf("expected empty history after /reset, got %d turns", len(sess.History()))
	}

	if !chatCommand(sess, "/quit") {
		t.Error("/quit should quit")
	}
}
