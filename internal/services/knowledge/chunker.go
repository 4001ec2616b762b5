// Package knowledge chunks collected research rows, embeds them and serves
// similarity search over the result.
package knowledge

import (
	"regexp"
	"strings"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// ChunkText splits text into chunks of at most maxChunkSize characters,
// keeping sentences intact. A sentence longer than the limit becomes its
// own chunk. Text without terminal punctuation is treated as one sentence.
func ChunkText(text string, maxChunkSize int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = 500
	}

	sentences := sentenceRe.FindAllString(text, -1)
	if sentences == nil {
		sentences = []string{text}
	}

	var chunks []string
	var current string
	for _, sentence := range sentences {
		if len(current+sentence) > maxChunkSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}
