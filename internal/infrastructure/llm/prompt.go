package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"NewsAggregator/internal/domain"
)

const (
	maxPromptRunes   = 2000
	minSummaryLength = 10
)

var errShortSummary = fmt.Errorf("model returned an unusable summary: %w", domain.ErrMalformedResponse)

func summaryPrompt(text string, maxLen, minLen int) string {
	return fmt.Sprintf(`Summarize this news article in 2-3 clear, concise sentences that capture the main points.
Use between %d and %d words.

%s

Focus on the key facts and main message. Make it easy to understand.`, minLen, maxLen, clip(text))
}

func biasPrompt(text string, labels []string) string {
	return fmt.Sprintf(`Analyze the political bias of this news article and classify it as one of: %s.

Consider the language used, sources quoted, framing of issues, and overall tone.
Article content: %s

Respond with only ONE WORD: %s`, strings.Join(labels, ", "), clip(text), strings.Join(labels, ", or "))
}

// clip bounds prompt input size.
func clip(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxPromptRunes {
		return text
	}
	return string([]rune(text)[:maxPromptRunes])
}

func checkSummary(answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if utf8.RuneCountInString(answer) < minSummaryLength {
		return "", fmt.Errorf("%w: %q", errShortSummary, answer)
	}
	return answer, nil
}

// matchLabel accepts a one-word answer that names one of the candidates.
func matchLabel(answer string, labels []string) (string, error) {
	word := strings.ToUpper(strings.Trim(strings.TrimSpace(answer), ".!\"'`*"))
	for _, label := range labels {
		if word == strings.ToUpper(label) {
			return label, nil
		}
	}
	return "", fmt.Errorf("model answered %q, expected one of %v: %w", answer, labels, domain.ErrMalformedResponse)
}
