package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// Config bounds the summarizer's cost controls.
type Config struct {
	// ShortTextLength: texts with fewer runes are truncated instead of summarized.
	ShortTextLength int
	// TruncateLength is how many runes the short-text path keeps.
	TruncateLength int
	// FingerprintLength is the prefix hashed into the cache key.
	FingerprintLength int
	CacheTTL          time.Duration
	MaxLength         int
	MinLength         int
	KeyPrefix         string
}

// DefaultConfig mirrors the production cost controls.
func DefaultConfig() Config {
	return Config{
		ShortTextLength:   500,
		TruncateLength:    200,
		FingerprintLength: 1000,
		CacheTTL:          time.Hour,
		MaxLength:         100,
		MinLength:         30,
		KeyPrefix:         "summary:",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ShortTextLength <= 0 {
		c.ShortTextLength = def.ShortTextLength
	}
	if c.TruncateLength <= 0 {
		c.TruncateLength = def.TruncateLength
	}
	if c.FingerprintLength <= 0 {
		c.FingerprintLength = def.FingerprintLength
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.MaxLength <= 0 {
		c.MaxLength = def.MaxLength
	}
	if c.MinLength <= 0 {
		c.MinLength = def.MinLength
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
	return c
}

// Summarizer wraps a summarization strategy with a fingerprint cache.
type Summarizer struct {
	strategy ports.SummarizationDelegate
	cache    ports.Cache
	cfg      Config
	logger   *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// New builds a summarizer. A nil strategy selects the lead-sentence heuristic; a nil cache disables caching.
func New(strategy ports.SummarizationDelegate, cache ports.Cache, cfg Config, logger *slog.Logger) *Summarizer {
	if strategy == nil {
		strategy = LeadStrategy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		strategy: strategy,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Summarize returns a short summary. Strategy failures are returned unchanged so the caller picks the fallback.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if utf8.RuneCountInString(text) < s.cfg.ShortTextLength {
		return Truncate(text, s.cfg.TruncateLength), nil
	}

	key := s.Fingerprint(text)
	if cached, ok := s.lookup(ctx, key); ok {
		metrics.RecordSummaryCache("hit")
		return cached, nil
	}
	metrics.RecordSummaryCache("miss")

	summary, err := s.strategy.Summarize(ctx, text, s.cfg.MaxLength, s.cfg.MinLength)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", errors.New("summarize: empty summary")
	}

	s.store(ctx, key, summary)
	return summary, nil
}

// Fingerprint derives the cache key from a bounded prefix of text.
func (s *Summarizer) Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(prefix(text, s.cfg.FingerprintLength)))
	return s.cfg.KeyPrefix + hex.EncodeToString(sum[:])
}

func (s *Summarizer) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("summary cache read failed", "key", key, "error", err)
		return "", false
	}
	return value, ok
}

func (s *Summarizer) store(ctx context.Context, key, summary string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", "key", key, "error", err)
	}
}

// Truncate keeps the first n runes and appends an ellipsis.
func Truncate(text string, n int) string {
	return prefix(text, n) + "..."
}

func prefix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

