package resilient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
)

type stubDelegate struct {
	calls    int
	err      error
	wait     time.Duration
	label    string
	labelErr error
}

func (s *stubDelegate) Summarize(ctx context.Context, _ string, _, _ int) (string, error) {
	s.calls++
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "summary", s.err
}

func (s *stubDelegate) Classify(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	if s.labelErr != nil {
		return "", s.labelErr
	}
	if s.label == "" {
		return "LEFT", s.err
	}
	return s.label, s.err
}

func TestGuardPassesThrough(t *testing.T) {
	t.Parallel()

	d := &stubDelegate{}
	g := NewGuard(d, d, Settings{Name: "stub"}, nil)

	got, err := g.Summarize(context.Background(), "text", 100, 30)
	require.NoError(t, err)
	assert.Equal(t, "summary", got)

	label, err := g.Classify(context.Background(), "text", []string{"LEFT"})
	require.NoError(t, err)
	assert.Equal(t, "LEFT", label)
}

func TestGuardOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	d := &stubDelegate{err: errors.New("503 from provider")}
	g := NewGuard(d, nil, Settings{Name: "tripping", MaxFailures: 2, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		_, err := g.Summarize(context.Background(), "text", 100, 30)
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrDelegateUnavailable))
	}
	assert.Equal(t, gobreaker.StateOpen, g.summarize.State())
	assert.Equal(t, float64(gobreaker.StateOpen),
		testutil.ToFloat64(metrics.DelegateBreakerState.WithLabelValues("tripping", "summarize")))

	_, err := g.Summarize(context.Background(), "text", 100, 30)
	require.ErrorIs(t, err, domain.ErrDelegateUnavailable)
	assert.Equal(t, 2, d.calls, "open breaker must not reach the delegate")
}

func TestGuardTimeout(t *testing.T) {
	t.Parallel()

	d := &stubDelegate{wait: time.Second}
	g := NewGuard(d, nil, Settings{Name: "slow", Timeout: 20 * time.Millisecond}, nil)

	_, err := g.Summarize(context.Background(), "text", 100, 30)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardMissingDelegate(t *testing.T) {
	t.Parallel()

	g := NewGuard(nil, nil, Settings{Name: "none"}, nil)
	_, err := g.Classify(context.Background(), "text", nil)
	require.ErrorIs(t, err, domain.ErrDelegateUnavailable)
}

func TestGuardMalformedAnswersKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	d := &stubDelegate{labelErr: fmt.Errorf("model answered %q: %w", "The article is neutral", domain.ErrMalformedResponse)}
	g := NewGuard(d, d, Settings{Name: "chatty", MaxFailures: 2, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 5; i++ {
		_, err := g.Classify(context.Background(), "text", []string{"LEFT", "RIGHT"})
		require.ErrorIs(t, err, domain.ErrMalformedResponse)
	}
	assert.Equal(t, gobreaker.StateClosed, g.classify.State())

	got, err := g.Summarize(context.Background(), "text", 100, 30)
	require.NoError(t, err)
	assert.Equal(t, "summary", got)
	assert.Equal(t, 6, d.calls)
}

func TestGuardBreakersAreIndependentPerOperation(t *testing.T) {
	t.Parallel()

	classifier := &stubDelegate{err: errors.New("503 from provider")}
	summarizer := &stubDelegate{}
	g := NewGuard(summarizer, classifier, Settings{Name: "split", MaxFailures: 2, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		_, _ = g.Classify(context.Background(), "text", []string{"LEFT"})
	}
	assert.Equal(t, gobreaker.StateOpen, g.classify.State())
	assert.Equal(t, 2, classifier.calls)

	_, err := g.Summarize(context.Background(), "text", 100, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, gobreaker.StateClosed, g.summarize.State())
}

func TestGuardIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	d := &stubDelegate{wait: time.Second}
	g := NewGuard(d, nil, Settings{Name: "cancelled", MaxFailures: 1, OpenTimeout: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Summarize(ctx, "text", 100, 30)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, g.summarize.State())
}
