package domain

import "strings"

// PersonaStyle shapes the tone of generated answers.
type PersonaStyle int

const (
	PersonaProfessional PersonaStyle = iota
	PersonaTechnical
	PersonaCasual
)

// ParsePersona maps user input to a persona. Unknown values fall back to Professional.
func ParsePersona(s string) PersonaStyle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "technical":
		return PersonaTechnical
	case "casual":
		return PersonaCasual
	default:
		return PersonaProfessional
	}
}

func (p PersonaStyle) String() string {
	switch p {
	case PersonaTechnical:
		return "Technical"
	case PersonaCasual:
		return "Casual"
	default:
		return "Professional"
	}
}

// Instruction returns the fixed prompt fragment for the persona.
func (p PersonaStyle) Instruction() string {
	switch p {
	case PersonaTechnical:
		return "Provide a precise and technical explanation."
	case PersonaCasual:
		return "Respond in a friendly and conversational tone."
	default:
		return "Give a clear, well-structured, and formal response."
	}
}

// BackendName identifies a generation provider.
type BackendName string

const (
	BackendGemini  BackendName = "gemini"
	BackendMistral BackendName = "mistral"
)

// KnownBackends lists the providers shipped with docrag.
var KnownBackends = []BackendName{BackendGemini, BackendMistral}

// NormalizeBackendName canonicalises user input before registry lookup.
func NormalizeBackendName(s string) BackendName {
	return BackendName(strings.ToLower(strings.TrimSpace(s)))
}
