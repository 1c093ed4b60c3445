package ingest

import (
	"strings"
	"unicode/utf8"
)

// Separators ordered from "best" to "worst" for semantic meaning
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk splits text into pieces of at most size runes, carrying the last
// overlap runes of each chunk into the next one. Blank text yields nil.
func Chunk(text string, size int, overlap int) []string {
	if strings.TrimSpace(text) == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, piece := range splitPieces(text, size, 0) {
		pieceLen := utf8.RuneCountInString(piece)
		if currentLen > 0 && currentLen+pieceLen > size {
			chunks = appendChunk(chunks, current.String())

			// start the next chunk with the end of the previous one
			tail := lastRunes(current.String(), overlap)
			current.Reset()
			currentLen = 0
			if tailLen := utf8.RuneCountInString(tail); tailLen+pieceLen <= size {
				current.WriteString(tail)
				currentLen = tailLen
			}
		}
		current.WriteString(piece)
		currentLen += pieceLen
	}
	return appendChunk(chunks, current.String())
}

// splitPieces cuts text on the best separator present, recursing with weaker
// separators for pieces still over the limit. Joining the pieces gives back text.
func splitPieces(text string, size int, level int) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}
	if level >= len(separators) {
		return hardSplit(text, size)
	}

	parts := strings.SplitAfter(text, separators[level])
	if len(parts) == 1 {
		return splitPieces(text, size, level+1)
	}
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, splitPieces(p, size, level+1)...)
	}
	return out
}

// Hard cut if no separator found (rare)
func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func appendChunk(chunks []string, c string) []string {
	if c = strings.TrimSpace(c); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}
