// Package chunker splits long files into passages before ingestion.
package chunker

import (
	"strings"
)

// LineSplitter cuts text on line boundaries into passages of at most
// maxWords words, repeating about overlap words from the end of one
// passage at the start of the next. A single line longer than maxWords
// becomes its own passage.
type LineSplitter struct {
	maxWords int
	overlap  int
}

func NewLineSplitter(maxWords, overlap int) *LineSplitter {
	if overlap >= maxWords {
		overlap = maxWords / 2
	}
	if overlap < 0 {
		overlap = 0
	}
	return &LineSplitter{maxWords: maxWords, overlap: overlap}
}

// Split returns the trimmed, non-blank passages of content in order.
func (s *LineSplitter) Split(content string) []string {
	lines := strings.Split(content, "\n")
	if s.maxWords <= 0 {
		if text := strings.TrimSpace(content); text != "" {
			return []string{text}
		}
		return nil
	}

	var passages []string
	start := 0

	for start < len(lines) {
		end := start
		words := 0

		for end < len(lines) {
			n := countWords(lines[end])
			if words > 0 && words+n > s.maxWords {
				break
			}
			words += n
			end++
		}
		if end == start {
			end++
		}

		text := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if text != "" {
			passages = append(passages, text)
		}
		if end >= len(lines) {
			break
		}

		next := end - s.overlapLines(lines, start, end)
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return passages
}

func (s *LineSplitter) overlapLines(lines []string, start, end int) int {
	if s.overlap == 0 {
		return 0
	}

	n, words := 0, 0
	for i := end - 1; i > start && words < s.overlap; i-- {
		words += countWords(lines[i])
		n++
	}
	return n
}

func countWords(line string) int {
	return len(strings.Fields(line))
}
