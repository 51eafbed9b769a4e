package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
)

type countingDelegate struct {
	mu     sync.Mutex
	calls  int
	result string
	err    error
	maxLen int
	minLen int
}

func (d *countingDelegate) Summarize(_ context.Context, _ string, maxLen, minLen int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.maxLen, d.minLen = maxLen, minLen
	return d.result, d.err
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func longText() string {
	return strings.Repeat("The council approved the new transit budget after a long debate. ", 12)
}

func TestShortTextBypassesDelegate(t *testing.T) {
	t.Parallel()

	delegate := &countingDelegate{result: "unused"}
	s := New(delegate, newMemoryCache(), Config{}, nil)

	text := strings.Repeat("abcdefghij", 40)
	require.Len(t, text, 400)

	got, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text[:200]+"...", got)
	assert.Zero(t, delegate.calls)
}

func TestCacheHitSkipsDelegate(t *testing.T) {
	t.Parallel()

	delegate := &countingDelegate{result: "Council approves transit budget."}
	cache := newMemoryCache()
	s := New(delegate, cache, Config{}, nil)

	text := longText()
	require.GreaterOrEqual(t, len(text), 500)

	first, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)
	second, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, delegate.calls)
	assert.Equal(t, 100, delegate.maxLen)
	assert.Equal(t, 30, delegate.minLen)
	assert.Equal(t, time.Hour, cache.ttls[s.Fingerprint(text)])
}

func TestFingerprintUsesBoundedPrefix(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, Config{}, nil)
	base := strings.Repeat("x", 1000)

	assert.Equal(t, s.Fingerprint(base+"tail one"), s.Fingerprint(base+"tail two"))
	assert.NotEqual(t, s.Fingerprint("a"+base), s.Fingerprint("b"+base))
	assert.True(t, strings.HasPrefix(s.Fingerprint(base), "summary:"))
}

func TestDelegateFailureLeavesSummaryUnset(t *testing.T) {
	t.Parallel()

	delegate := &countingDelegate{err: domain.ErrDelegateUnavailable}
	cache := newMemoryCache()
	s := New(delegate, cache, Config{}, nil)

	got, err := s.Summarize(context.Background(), longText())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelegateUnavailable))
	assert.Empty(t, got)
	assert.Empty(t, cache.entries)
}

func TestCacheReadErrorIsTreatedAsMiss(t *testing.T) {
	t.Parallel()

	delegate := &countingDelegate{result: "summary"}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	s := New(delegate, cache, Config{}, nil)

	got, err := s.Summarize(context.Background(), longText())
	require.NoError(t, err)
	assert.Equal(t, "summary", got)
	assert.Equal(t, 1, delegate.calls)
}

func TestTruncateIsRuneAware(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
	assert.Equal(t, "abc...", Truncate("abc", 200))
}

func TestLeadStrategy(t *testing.T) {
	t.Parallel()

	text := "First sentence here. Second one follows!   Third is the longest sentence of them all?"
	got, err := LeadStrategy{}.Summarize(context.Background(), text, 6, 0)
	require.NoError(t, err)
	assert.Equal(t, "First sentence here. Second one follows!", got)

	got, err = LeadStrategy{}.Summarize(context.Background(), "one two three four five", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "one two three...", got)
}
