package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/classify"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newFetchService(repo *memoryRepo, sources ...scanner.Source) *FetchService {
	registry := scanner.NewRegistry()
	for _, source := range sources {
		registry.Register(source)
	}
	return NewFetchService(FetchDeps{
		Registry:    registry,
		Repository:  repo,
		Categorizer: classify.NewKeywordCategorizer(nil),
		Now:         func() time.Time { return fixedNow },
	})
}

func TestFetchIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	source := &stubSource{name: "newsapi", items: []scanner.Item{
		{URL: "https://example.com/a", Title: "First", Published: "2024-04-30T10:00:00Z"},
		{URL: "https://example.com/b", Title: "Second", Published: "2024-04-30T11:00:00Z"},
	}}
	svc := newFetchService(repo, source)

	assert.Equal(t, 2, svc.Fetch(context.Background(), "newsapi"))
	assert.Equal(t, 0, svc.Fetch(context.Background(), "newsapi"))
	assert.Len(t, repo.articles, 2)
}

func TestFetchNormalizesItems(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	source := &stubSource{name: "guardian", items: []scanner.Item{
		{URL: "", Title: "no url"},
		{URL: "https://example.com/no-title", Title: "   "},
		{
			URL:         " https://example.com/long ",
			Title:       strings.Repeat("é", 600),
			Description: strings.Repeat("d", 1500),
			Published:   "Tue, 30 Apr 2024 09:15:00 +0200",
		},
		{URL: "https://example.com/undated", Title: "Undated", Published: "yesterday"},
	}}
	svc := newFetchService(repo, source)

	require.Equal(t, 2, svc.Fetch(context.Background(), "guardian"))

	long := repo.articles[1]
	assert.Equal(t, "https://example.com/long", long.URL)
	assert.Equal(t, 500, len([]rune(long.Title)))
	assert.Len(t, long.Description, domain.MaxDescriptionLength)
	assert.Equal(t, time.Date(2024, 4, 30, 7, 15, 0, 0, time.UTC), long.PublishedAt)
	assert.Equal(t, domain.BiasUnknown, long.Bias)

	undated := repo.articles[2]
	assert.Equal(t, fixedNow, undated.PublishedAt, "malformed dates fall back to ingestion time")
}

func TestFetchAssignsCategories(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	source := &stubSource{name: "rss", items: []scanner.Item{
		{URL: "https://example.com/plain", Title: "Bakery opens on Main Street"},
		{URL: "https://example.com/part", Title: "Parliament debates the election budget"},
	}}
	svc := newFetchService(repo, source)

	require.Equal(t, 2, svc.Fetch(context.Background(), "rss"))
	assert.Equal(t, []string{domain.DefaultCategory}, repo.categories[1])
	assert.NotEmpty(t, repo.categories[2])
	assert.LessOrEqual(t, len(repo.categories[2]), 3)
}

func TestFetchUsesSourceTimestamp(t *testing.T) {
	t.Parallel()

	published := time.Date(2024, 4, 2, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	repo := newMemoryRepo()
	source := &stubSource{name: "rss", items: []scanner.Item{
		{URL: "https://example.com/x", Title: "X", PublishedAt: &published, Published: "garbage"},
	}}
	svc := newFetchService(repo, source)

	require.Equal(t, 1, svc.Fetch(context.Background(), "rss"))
	assert.True(t, published.Equal(repo.articles[1].PublishedAt))
}

func TestFetchUnknownSourceReturnsZero(t *testing.T) {
	t.Parallel()

	svc := newFetchService(newMemoryRepo())
	assert.Equal(t, 0, svc.Fetch(context.Background(), "nope"))
}

func TestFetchAllIsolatesSources(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	repo.failPrefix = "https://broken.example/"
	broken := &stubSource{name: "newsapi", items: []scanner.Item{
		{URL: "https://broken.example/1", Title: "one"},
		{URL: "https://broken.example/2", Title: "two"},
	}}
	down := &stubSource{name: "guardian", err: errors.New("503 service unavailable")}
	healthy := &stubSource{name: "rss", items: []scanner.Item{
		{URL: "https://ok.example/1", Title: "fine"},
	}}
	svc := newFetchService(repo, broken, down, healthy)

	counts := svc.FetchAll(context.Background(), []string{"newsapi", "guardian", "rss", "missing"})

	assert.Equal(t, map[string]int{"newsapi": 0, "guardian": 0, "rss": 1, "missing": 0}, counts)
	assert.Len(t, repo.articles, 1)
}

func TestFetchRunsCreatedHook(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	registry := scanner.NewRegistry()
	registry.Register(&stubSource{name: "rss", items: []scanner.Item{
		{URL: "https://example.com/1", Title: "one"},
		{URL: "https://example.com/2", Title: "two"},
	}})

	var created []int64
	svc := NewFetchService(FetchDeps{
		Registry:   registry,
		Repository: repo,
		OnCreated: func(_ context.Context, article domain.Article) {
			created = append(created, article.ID)
		},
	})

	require.Equal(t, 2, svc.Fetch(context.Background(), "rss"))
	assert.Equal(t, []int64{1, 2}, created)
	assert.Equal(t, []string{domain.DefaultCategory}, repo.categories[1], "missing categorizer still yields the default")
}

func TestCapRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héll", capRunes("héllo", 4))
	assert.Equal(t, "abc", capRunes("abc", 10))
	assert.Equal(t, "", capRunes("abc", 0))
}
