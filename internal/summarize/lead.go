package summarize

import (
	"context"
	"regexp"
	"strings"

	"NewsAggregator/internal/ports"
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// LeadStrategy is the heuristic summarizer: leading sentences up to maxLen words.
type LeadStrategy struct{}

var _ ports.SummarizationDelegate = LeadStrategy{}

// Summarize implements ports.SummarizationDelegate without any I/O.
func (LeadStrategy) Summarize(_ context.Context, text string, maxLen, _ int) (string, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", nil
	}
	if maxLen <= 0 {
		maxLen = DefaultConfig().MaxLength
	}

	sentences := sentenceEnd.ReplaceAllString(text, "$1\n")
	var (
		picked []string
		words  int
	)
	for _, sentence := range strings.Split(sentences, "\n") {
		n := len(strings.Fields(sentence))
		if n == 0 {
			continue
		}
		if words+n > maxLen {
			if len(picked) == 0 {
				fields := strings.Fields(sentence)
				return strings.Join(fields[:maxLen], " ") + "...", nil
			}
			break
		}
		picked = append(picked, sentence)
		words += n
	}
	return strings.Join(picked, " "), nil
}
