package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Document is a stored passage. ID is the content hash of Text.
type Document struct {
	ID         string
	Text       string
	Embedding  []float32
	IngestedAt time.Time
	Seq        uint64 // insertion order, assigned by the store
}

type ScoredDocument struct {
	Document Document
	Score    float64
}

type IngestStatus string

const (
	StatusInserted       IngestStatus = "inserted"
	StatusAlreadyPresent IngestStatus = "already_present"
	StatusRejected       IngestStatus = "rejected"
)

type IngestResult struct {
	Status   IngestStatus `json:"status"`
	ID       string       `json:"id,omitempty"`
	DocCount int          `json:"doc_count"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Stats describes the store for the stats command and the API.
type Stats struct {
	Documents int    `json:"documents"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Embedder  string `json:"embedder"`
}

// NormalizeText trims the text and collapses internal runs of whitespace.
// Two texts that normalize to the same string are the same document.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContentID returns the stable content address of already-normalized text.
func ContentID(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
