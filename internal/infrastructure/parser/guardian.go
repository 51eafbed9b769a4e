package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

const guardianSourceName = "The Guardian"

// GuardianSource reads the newest pieces from the Guardian content API.
type GuardianSource struct {
	fetcher *httpFetcher
	cfg     config.GuardianConfig
	logger  *slog.Logger
}

var _ scanner.Source = (*GuardianSource)(nil)

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			WebURL             string `json:"webUrl"`
			WebTitle           string `json:"webTitle"`
			WebPublicationDate string `json:"webPublicationDate"`
			SectionName        string `json:"sectionName"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Body      string `json:"body"`
				Byline    string `json:"byline"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// NewGuardianSource wires the API configuration with an HTTP client.
func NewGuardianSource(cfg config.GuardianConfig, opts Options, logger *slog.Logger) *GuardianSource {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &GuardianSource{fetcher: newHTTPFetcher(opts), cfg: cfg, logger: logger}
}

// Name identifies the source inside the registry.
func (g *GuardianSource) Name() string {
	return config.SourceGuardian
}

// Fetch returns the newest articles with their section as a category hint.
func (g *GuardianSource) Fetch(ctx context.Context) ([]scanner.Item, error) {
	if g.cfg.APIKey == "" {
		g.logger.Warn("guardian key not configured, skipping")
		return nil, nil
	}

	query := url.Values{}
	query.Set("show-fields", "trailText,body,byline")
	query.Set("page-size", strconv.Itoa(g.cfg.PageSize))
	query.Set("order-by", "newest")
	query.Set("api-key", g.cfg.APIKey)
	endpoint := strings.TrimSuffix(g.cfg.BaseURL, "/") + "/search?" + query.Encode()

	body, err := g.fetcher.get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("guardian: %w", err)
	}

	var payload guardianResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("guardian: decode response: %w", err)
	}
	if payload.Response.Status != "" && payload.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian: %w: %s", domain.ErrSourceUnavailable, payload.Response.Message)
	}

	items := make([]scanner.Item, 0, len(payload.Response.Results))
	for _, r := range payload.Response.Results {
		items = append(items, scanner.Item{
			URL:         strings.TrimSpace(r.WebURL),
			Title:       strings.TrimSpace(r.WebTitle),
			Description: PlainText(r.Fields.TrailText),
			Content:     PlainText(r.Fields.Body),
			Author:      strings.TrimSpace(r.Fields.Byline),
			SourceName:  guardianSourceName,
			Section:     r.SectionName,
			Published:   r.WebPublicationDate,
		})
	}
	return items, nil
}
