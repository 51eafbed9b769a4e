// Package resilient bounds calls to external model delegates with a timeout and a circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// Settings tunes a Guard.
type Settings struct {
	Name string
	// Timeout bounds every delegate call.
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a half-open probe.
	OpenTimeout time.Duration
}

// DefaultSettings returns the production delegate bounds.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		Timeout:     15 * time.Second,
		MaxFailures: 5,
		OpenTimeout: time.Minute,
	}
}

// Guard wraps summarization and bias delegates. Either may be nil. Each operation has its own breaker.
type Guard struct {
	name       string
	timeout    time.Duration
	summarizer ports.SummarizationDelegate
	classifier ports.BiasDelegate
	summarize  *gobreaker.CircuitBreaker[string]
	classify   *gobreaker.CircuitBreaker[string]
	logger     *slog.Logger
}

var (
	_ ports.SummarizationDelegate = (*Guard)(nil)
	_ ports.BiasDelegate          = (*Guard)(nil)
)

// NewGuard builds a guard with one breaker per operation of a provider.
func NewGuard(summarizer ports.SummarizationDelegate, classifier ports.BiasDelegate, settings Settings, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultSettings(settings.Name)
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = def.MaxFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = def.OpenTimeout
	}

	return &Guard{
		name:       settings.Name,
		timeout:    settings.Timeout,
		summarizer: summarizer,
		classifier: classifier,
		summarize:  newBreaker(settings, "summarize", logger),
		classify:   newBreaker(settings, "classify", logger),
		logger:     logger,
	}
}

func newBreaker(settings Settings, op string, logger *slog.Logger) *gobreaker.CircuitBreaker[string] {
	metrics.SetBreakerState(settings.Name, op, float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:         settings.Name + "/" + op,
		MaxRequests:  1,
		Timeout:      settings.OpenTimeout,
		IsSuccessful: reachable,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("delegate circuit breaker state change", "delegate", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerState(settings.Name, op, float64(to))
		},
	})
}

// reachable reports whether a call outcome proves the delegate is up. Unusable answers and
// callers giving up do not count against it.
func reachable(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrMalformedResponse) ||
		errors.Is(err, context.Canceled)
}

// Summarize implements ports.SummarizationDelegate.
func (g *Guard) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	if g.summarizer == nil {
		return "", fmt.Errorf("%s summarize: %w", g.name, domain.ErrDelegateUnavailable)
	}
	return g.execute(ctx, g.summarize, "summarize", func(ctx context.Context) (string, error) {
		return g.summarizer.Summarize(ctx, text, maxLen, minLen)
	})
}

// Classify implements ports.BiasDelegate.
func (g *Guard) Classify(ctx context.Context, text string, labels []string) (string, error) {
	if g.classifier == nil {
		return "", fmt.Errorf("%s classify: %w", g.name, domain.ErrDelegateUnavailable)
	}
	return g.execute(ctx, g.classify, "classify", func(ctx context.Context) (string, error) {
		return g.classifier.Classify(ctx, text, labels)
	})
}

func (g *Guard) execute(ctx context.Context, cb *gobreaker.CircuitBreaker[string], op string, fn func(context.Context) (string, error)) (string, error) {
	result, err := cb.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordDelegateCall(g.name, op, "rejected")
			return "", fmt.Errorf("%s %s: %w", g.name, op, domain.ErrDelegateUnavailable)
		}
		status := "failure"
		if errors.Is(err, domain.ErrMalformedResponse) {
			status = "malformed"
		}
		metrics.RecordDelegateCall(g.name, op, status)
		return "", fmt.Errorf("%s %s: %w", g.name, op, err)
	}
	metrics.RecordDelegateCall(g.name, op, "success")
	return result, nil
}
