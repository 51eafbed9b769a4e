package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

var feedNames = []struct {
	hostPart string
	name     string
}{
	{"bbc", "BBC News"},
	{"cnn", "CNN"},
	{"reuters", "Reuters"},
	{"techcrunch", "TechCrunch"},
	{"arstechnica", "Ars Technica"},
}

// FeedSource aggregates a list of RSS/Atom feeds.
type FeedSource struct {
	fetcher *httpFetcher
	feeds   []string
	perFeed int
	logger  *slog.Logger
}

var _ scanner.Source = (*FeedSource)(nil)

// NewFeedSource wires the feed list with an HTTP client.
func NewFeedSource(cfg config.RSSConfig, opts Options, logger *slog.Logger) *FeedSource {
	if logger == nil {
		logger = slog.Default()
	}
	perFeed := cfg.EntriesPerFeed
	if perFeed <= 0 {
		perFeed = 5
	}
	return &FeedSource{fetcher: newHTTPFetcher(opts), feeds: cfg.Feeds, perFeed: perFeed, logger: logger}
}

// Name identifies the source inside the registry.
func (f *FeedSource) Name() string {
	return config.SourceRSS
}

// Fetch reads every feed; a failing feed is logged and skipped. It errors only when all feeds fail.
func (f *FeedSource) Fetch(ctx context.Context) ([]scanner.Item, error) {
	var (
		items []scanner.Item
		errs  []error
	)
	for _, feedURL := range f.feeds {
		feedItems, err := f.fetchFeed(ctx, feedURL)
		if err != nil {
			f.logger.Warn("feed failed", "feed", feedURL, "error", err)
			errs = append(errs, err)
			continue
		}
		f.logger.Debug("feed produced items", "feed", feedURL, "count", len(feedItems))
		items = append(items, feedItems...)
	}
	if len(f.feeds) > 0 && len(errs) == len(f.feeds) {
		return nil, fmt.Errorf("rss: %w: %w", domain.ErrSourceUnavailable, errors.Join(errs...))
	}
	return items, nil
}

func (f *FeedSource) fetchFeed(ctx context.Context, feedURL string) ([]scanner.Item, error) {
	body, err := f.fetcher.get(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	sourceName := FeedSourceName(feedURL, feed.Title)
	entries := feed.Items
	if len(entries) > f.perFeed {
		entries = entries[:f.perFeed]
	}

	items := make([]scanner.Item, 0, len(entries))
	for _, entry := range entries {
		item := scanner.Item{
			URL:         strings.TrimSpace(entry.Link),
			Title:       PlainText(entry.Title),
			Description: PlainText(entry.Description),
			SourceName:  sourceName,
			Published:   entry.Published,
			PublishedAt: entry.PublishedParsed,
		}
		if item.PublishedAt == nil {
			item.PublishedAt = entry.UpdatedParsed
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		if len(entry.Categories) > 0 {
			item.Section = entry.Categories[0]
		}
		items = append(items, item)
	}
	return items, nil
}

// FeedSourceName derives a publisher name from the feed host, then the feed title.
func FeedSourceName(feedURL, title string) string {
	if u, err := url.Parse(feedURL); err == nil {
		host := strings.ToLower(u.Hostname())
		for _, known := range feedNames {
			if strings.Contains(host, known.hostPart) {
				return known.name
			}
		}
	}
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return "RSS Feed"
}
