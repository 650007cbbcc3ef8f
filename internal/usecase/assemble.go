package usecase

import (
	"embed"
	"strings"
	"text/template"

	"docrag/internal/domain"
)

//go:embed templates/*.txt
var templateFS embed.FS

var answerTemplate = template.Must(
	template.New("answer_prompt.txt").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/answer_prompt.txt"),
)

type promptData struct {
	Passages []string
	History  []domain.ConversationTurn
	Query    string
	Persona  string
}

// Assemble builds the generation prompt. Sections always appear in this
// order: retrieved context (best match first), chat history (oldest first),
// the user query, the persona instruction, and the answer cue.
func Assemble(retrieved []string, history []domain.ConversationTurn, persona domain.PersonaStyle, query string) string {
	var sb strings.Builder
	err := answerTemplate.Execute(&sb, promptData{
		Passages: retrieved,
		History:  history,
		Query:    query,
		Persona:  persona.Instruction(),
	})
	if err != nil {
		// Only reachable if the embedded template is broken.
		panic(err)
	}
	return sb.String()
}
