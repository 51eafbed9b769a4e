package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/scanner"
)

var publishedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
}

// FetchDeps wires the collaborators of FetchService.
type FetchDeps struct {
	Registry    *scanner.Registry
	Repository  ports.ArticleRepository
	Categorizer ports.Categorizer
	// OnCreated runs after every new article is stored. Optional.
	OnCreated func(ctx context.Context, article domain.Article)
	Logger    *slog.Logger
	Now       func() time.Time
}

// FetchService turns raw source items into stored, categorized articles.
type FetchService struct {
	registry    *scanner.Registry
	repository  ports.ArticleRepository
	categorizer ports.Categorizer
	onCreated   func(ctx context.Context, article domain.Article)
	logger      *slog.Logger
	now         func() time.Time
}

// NewFetchService constructs the ingestion component.
func NewFetchService(deps FetchDeps) *FetchService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &FetchService{
		registry:    deps.Registry,
		repository:  deps.Repository,
		categorizer: deps.Categorizer,
		onCreated:   deps.OnCreated,
		logger:      logger.With("component", "fetch"),
		now:         now,
	}
}

// Fetch pulls one source and returns how many new articles were created.
// Failures are logged and yield a partial or zero count.
func (s *FetchService) Fetch(ctx context.Context, name string) int {
	source, err := s.registry.Resolve(name)
	if err != nil {
		s.logger.Error("fetch rejected", "source", name, "error", err)
		metrics.RecordFetchRun(name, "unknown")
		return 0
	}

	items, err := source.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetch source failed", "source", name, "error", err)
		metrics.RecordFetchRun(name, "failed")
		return 0
	}

	created := 0
	for _, item := range items {
		if ctx.Err() != nil {
			s.logger.Warn("fetch interrupted", "source", name, "created", created, "error", ctx.Err())
			break
		}
		ok, err := s.ingest(ctx, item)
		switch {
		case err == nil && ok:
			created++
			metrics.RecordFetchItem(name, "created")
		case err == nil:
			metrics.RecordFetchItem(name, "duplicate")
		case errors.Is(err, domain.ErrMalformedItem):
			s.logger.Debug("skipping item", "source", name, "error", err)
			metrics.RecordFetchItem(name, "malformed")
		default:
			s.logger.Error("store item failed", "source", name, "url", item.URL, "error", err)
			metrics.RecordFetchItem(name, "failed")
		}
	}

	s.logger.Info("fetch finished", "source", name, "items", len(items), "created", created)
	metrics.RecordFetchRun(name, "ok")
	return created
}

// FetchAll runs the named sources concurrently and returns per-source counts.
func (s *FetchService) FetchAll(ctx context.Context, names []string) map[string]int {
	var (
		mu     sync.Mutex
		counts = make(map[string]int, len(names))
		g      errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			n := s.Fetch(ctx, name)
			mu.Lock()
			counts[name] = n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

// ingest stores one item. It reports false without error when the URL is already known.
func (s *FetchService) ingest(ctx context.Context, item scanner.Item) (bool, error) {
	url := strings.TrimSpace(item.URL)
	title := strings.TrimSpace(item.Title)
	if url == "" || title == "" {
		return false, fmt.Errorf("item %q: missing url or title: %w", url, domain.ErrMalformedItem)
	}

	exists, err := s.repository.ExistsByURL(ctx, url)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", url, err)
	}
	if exists {
		return false, nil
	}

	article := domain.Article{
		URL:         url,
		Title:       capRunes(title, domain.MaxTitleLength),
		Description: capRunes(strings.TrimSpace(item.Description), domain.MaxDescriptionLength),
		Content:     capRunes(strings.TrimSpace(item.Content), domain.MaxContentLength),
		Author:      capRunes(strings.TrimSpace(item.Author), domain.MaxAuthorLength),
		SourceName:  capRunes(strings.TrimSpace(item.SourceName), domain.MaxSourceNameLength),
		PublishedAt: s.publishedAt(item),
		Bias:        domain.BiasUnknown,
	}

	var categories []string
	if s.categorizer != nil {
		categories = s.categorizer.Categorize(article.Title, article.Description, item.Section)
	}
	if len(categories) == 0 {
		categories = []string{domain.DefaultCategory}
	}

	stored, err := s.repository.CreateArticle(ctx, article, categories)
	if errors.Is(err, domain.ErrDuplicateArticle) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s: %w", url, err)
	}

	s.logger.Debug("article created", "article_id", stored.ID, "url", url, "categories", categories)
	if s.onCreated != nil {
		s.onCreated(ctx, stored)
	}
	return true, nil
}

func (s *FetchService) publishedAt(item scanner.Item) time.Time {
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		return item.PublishedAt.UTC()
	}
	raw := strings.TrimSpace(item.Published)
	if raw != "" {
		for _, layout := range publishedLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
	}
	s.logger.Warn("publish date missing or malformed, using ingestion time", "url", item.URL, "published", raw)
	return s.now().UTC()
}

func capRunes(value string, limit int) string {
	count := 0
	for i := range value {
		if count == limit {
			return value[:i]
		}
		count++
	}
	return value
}
