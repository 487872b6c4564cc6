package core

import (
	"context"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

const summarySentences = 3

// Whitespace covers the Unicode separators as well as the ASCII class.
var sentenceBoundary = regexp.MustCompile(`[.!?][\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)

// ExtractiveSummary returns the first three sentences of text. A sentence ends
// at '.', '!' or '?' followed by whitespace; text without such a boundary is
// returned trimmed.
func ExtractiveSummary(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// keep the punctuation, drop the whitespace
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
		if len(sentences) == summarySentences {
			break
		}
	}
	if len(sentences) < summarySentences && start < len(text) {
		sentences = append(sentences, text[start:])
	}

	return strings.TrimSpace(strings.Join(sentences, " "))
}

// generateOrFallback asks the backend for a completion and falls back to the
// extractive summary of source when the backend does not produce one.
func generateOrFallback(ctx context.Context, llm Generator, model, prompt, source string) string {
	res := llm.Generate(ctx, model, prompt)
	if !res.OK() {
		if res.Err != nil {
			log.Warnf("%s (%v) Using extractive summary.", res.Message(), res.Err)
		} else {
			log.Warnf("%s Using extractive summary.", res.Message())
		}
		return ExtractiveSummary(source)
	}
	return res.Text
}
