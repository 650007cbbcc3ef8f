package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docrag/internal/domain"
)

func TestAssemble_Layout(t *testing.T) {
	prompt := Assemble(
		[]string{"Paris is the capital of France.", "The Eiffel Tower is in Paris."},
		[]domain.ConversationTurn{
			{Role: domain.RoleUser, Text: "hi"},
			{Role: domain.RoleAssistant, Text: "hello"},
		},
		domain.PersonaTechnical,
		"What is the capital of France?",
	)

	want := "Context: Paris is the capital of France.\nThe Eiffel Tower is in Paris.\n\n" +
		"Chat History:\nuser: hi\nassistant: hello\n\n" +
		"User Query: What is the capital of France?\n\n" +
		"Persona Style: Provide a precise and technical explanation.\n\n" +
		"Answer:\n"
	assert.Equal(t, want, prompt)
}

func TestAssemble_Order(t *testing.T) {
	prompt := Assemble([]string{"CTX"}, []domain.ConversationTurn{{Role: domain.RoleUser, Text: "HIST"}}, domain.PersonaCasual, "QUERY")

	positions := []int{
		strings.Index(prompt, "CTX"),
		strings.Index(prompt, "HIST"),
		strings.Index(prompt, "QUERY"),
		strings.Index(prompt, domain.PersonaCasual.Instruction()),
		strings.Index(prompt, "Answer:"),
	}
	for i := 1; i < len(positions); i++ {
		assert.Greater(t, positions[i], positions[i-1], "section %d out of order", i)
	}
}

func TestAssemble_EmptyHistory(t *testing.T) {
	prompt := Assemble([]string{"only passage"}, nil, domain.PersonaProfessional, "q")
	assert.Contains(t, prompt, "Chat History:\n\nUser Query: q")
	assert.Contains(t, prompt, domain.PersonaProfessional.Instruction())
}
