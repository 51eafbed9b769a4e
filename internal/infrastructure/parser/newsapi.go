package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

// NewsAPISource reads top headlines from newsapi.org.
type NewsAPISource struct {
	fetcher *httpFetcher
	cfg     config.NewsAPIConfig
	logger  *slog.Logger
}

var _ scanner.Source = (*NewsAPISource)(nil)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// NewNewsAPISource wires the API configuration with an HTTP client.
func NewNewsAPISource(cfg config.NewsAPIConfig, opts Options, logger *slog.Logger) *NewsAPISource {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	return &NewsAPISource{fetcher: newHTTPFetcher(opts), cfg: cfg, logger: logger}
}

// Name identifies the source inside the registry.
func (n *NewsAPISource) Name() string {
	return config.SourceNewsAPI
}

// Fetch returns the latest headlines. A missing API key yields no items.
func (n *NewsAPISource) Fetch(ctx context.Context) ([]scanner.Item, error) {
	if n.cfg.APIKey == "" {
		n.logger.Warn("newsapi key not configured, skipping")
		return nil, nil
	}

	query := url.Values{}
	query.Set("country", n.cfg.Country)
	query.Set("pageSize", strconv.Itoa(n.cfg.PageSize))
	query.Set("sortBy", "publishedAt")
	endpoint := strings.TrimSuffix(n.cfg.BaseURL, "/") + "/v2/top-headlines?" + query.Encode()

	body, err := n.fetcher.get(ctx, endpoint, http.Header{"X-Api-Key": {n.cfg.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if payload.Status == "error" {
		return nil, fmt.Errorf("newsapi: %w: %s %s", domain.ErrSourceUnavailable, payload.Code, payload.Message)
	}

	items := make([]scanner.Item, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		sourceName := a.Source.Name
		if sourceName == "" {
			sourceName = "NewsAPI"
		}
		items = append(items, scanner.Item{
			URL:         strings.TrimSpace(a.URL),
			Title:       strings.TrimSpace(a.Title),
			Description: PlainText(a.Description),
			Content:     PlainText(a.Content),
			Author:      strings.TrimSpace(a.Author),
			SourceName:  sourceName,
			Published:   a.PublishedAt,
		})
	}
	return items, nil
}
