package classify

import (
	"context"
	"log/slog"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const (
	// DefaultBiasThreshold is the score margin needed to call a lean.
	DefaultBiasThreshold = 3
	// DefaultMinBiasTextLength short-circuits classification of tiny texts to UNKNOWN.
	DefaultMinBiasTextLength = 30
)

// CandidateLabels are offered to delegate classifiers.
var CandidateLabels = []string{
	string(domain.BiasLeft),
	string(domain.BiasRight),
	string(domain.BiasNeutral),
	string(domain.BiasMixed),
}

// DefaultLeftKeywords maps left-leaning terms to their weight.
func DefaultLeftKeywords() map[string]int {
	return map[string]int{
		"progressive":          2,
		"social justice":       3,
		"climate crisis":       2,
		"income inequality":    2,
		"systemic racism":      3,
		"universal healthcare": 3,
		"gun control":          2,
		"workers' rights":      2,
		"reproductive rights":  3,
		"undocumented":         2,
		"wealth tax":           2,
		"living wage":          1,
	}
}

// DefaultRightKeywords maps right-leaning terms to their weight.
func DefaultRightKeywords() map[string]int {
	return map[string]int{
		"conservative":       2,
		"traditional values": 3,
		"illegal alien":      3,
		"tax cuts":           2,
		"border security":    2,
		"second amendment":   3,
		"free market":        2,
		"pro-life":           3,
		"law and order":      2,
		"big government":     2,
		"radical left":       3,
		"deregulation":       1,
	}
}

// BiasConfig tunes the keyword heuristic.
type BiasConfig struct {
	Threshold     int
	MinTextLength int
	LeftKeywords  map[string]int
	RightKeywords map[string]int
}

func (c BiasConfig) withDefaults() BiasConfig {
	if c.Threshold <= 0 {
		c.Threshold = DefaultBiasThreshold
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = DefaultMinBiasTextLength
	}
	if len(c.LeftKeywords) == 0 {
		c.LeftKeywords = DefaultLeftKeywords()
	}
	if len(c.RightKeywords) == 0 {
		c.RightKeywords = DefaultRightKeywords()
	}
	return c
}

// DecideBias turns the two scores into a label.
func DecideBias(left, right, threshold int) domain.BiasLabel {
	switch {
	case left == 0 && right == 0:
		return domain.BiasUnknown
	case left >= threshold && right >= threshold:
		return domain.BiasMixed
	case left-right >= threshold:
		return domain.BiasLeft
	case right-left >= threshold:
		return domain.BiasRight
	default:
		return domain.BiasNeutral
	}
}

// KeywordBiasClassifier is the deterministic weighted-keyword heuristic.
type KeywordBiasClassifier struct {
	cfg BiasConfig
}

var _ ports.BiasClassifier = (*KeywordBiasClassifier)(nil)

// NewKeywordBiasClassifier applies defaults for any zero fields.
func NewKeywordBiasClassifier(cfg BiasConfig) *KeywordBiasClassifier {
	cfg = cfg.withDefaults()
	return &KeywordBiasClassifier{cfg: cfg}
}

// Scores sums the weights of keywords present in text.
func (k *KeywordBiasClassifier) Scores(text string) (left, right int) {
	lower := strings.ToLower(text)
	return score(lower, k.cfg.LeftKeywords), score(lower, k.cfg.RightKeywords)
}

// Classify implements ports.BiasClassifier.
func (k *KeywordBiasClassifier) Classify(_ context.Context, text string) domain.BiasLabel {
	if len(strings.TrimSpace(text)) < k.cfg.MinTextLength {
		return domain.BiasUnknown
	}
	left, right := k.Scores(text)
	return DecideBias(left, right, k.cfg.Threshold)
}

func score(lower string, weights map[string]int) int {
	total := 0
	for kw, w := range weights {
		if strings.Contains(lower, strings.ToLower(kw)) {
			total += w
		}
	}
	return total
}

// DelegateBiasClassifier asks an external model and degrades to UNKNOWN on any failure.
type DelegateBiasClassifier struct {
	delegate      ports.BiasDelegate
	minTextLength int
	logger        *slog.Logger
}

var _ ports.BiasClassifier = (*DelegateBiasClassifier)(nil)

// NewDelegateBiasClassifier wires a delegate; minTextLength <= 0 uses the default.
func NewDelegateBiasClassifier(delegate ports.BiasDelegate, minTextLength int, logger *slog.Logger) *DelegateBiasClassifier {
	if minTextLength <= 0 {
		minTextLength = DefaultMinBiasTextLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DelegateBiasClassifier{delegate: delegate, minTextLength: minTextLength, logger: logger}
}

// Classify implements ports.BiasClassifier.
func (d *DelegateBiasClassifier) Classify(ctx context.Context, text string) domain.BiasLabel {
	if len(strings.TrimSpace(text)) < d.minTextLength {
		return domain.BiasUnknown
	}

	answer, err := d.delegate.Classify(ctx, text, CandidateLabels)
	if err != nil {
		d.logger.Warn("bias delegate failed, falling back to unknown", "error", err)
		return domain.BiasUnknown
	}

	label := domain.ParseBiasLabel(strings.ToUpper(strings.TrimSpace(answer)))
	if label == domain.BiasUnknown {
		d.logger.Warn("bias delegate returned unexpected label", "label", answer)
	}
	return label
}

// NewBiasClassifier selects the delegate strategy when one is configured, the heuristic otherwise.
func NewBiasClassifier(delegate ports.BiasDelegate, cfg BiasConfig, logger *slog.Logger) ports.BiasClassifier {
	if delegate == nil {
		return NewKeywordBiasClassifier(cfg)
	}
	return NewDelegateBiasClassifier(delegate, cfg.MinTextLength, logger)
}
