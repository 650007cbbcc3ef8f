package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"docrag/internal/domain"
)

func TestScoreSummary(t *testing.T) {
	if _, _, ok := scoreSummary(nil); ok {
		t.Error("expected no summary for empty results")
	}

	avg, top, ok := scoreSummary([]domain.ScoredDocument{{Score: 0.9}, {Score: 0.5}})
	if !ok {
		t.Fatal("expected a summary")
	}
	if top != 0.9 {
		t.Errorf("expected top 0.9, got %f", top)
	}
	if avg < 0.699 || avg > 0.701 {
		t.Errorf("expected avg 0.7, got %f", avg)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("line one\nline two", 150); got != "line one line two" {
		t.Errorf("expected newlines flattened, got %q", got)
	}

	text := strings.Repeat("é", 200)
	got := preview(text, 150)
	if !utf8.ValidString(got) {
		t.Errorf("preview split a rune: %q", got)
	}
	if want := strings.Repeat("é", 150) + "..."; got != want {
		t.Errorf("expected 150 runes plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}
}
