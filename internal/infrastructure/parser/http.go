package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"NewsAggregator/internal/domain"
)

const maxBodyBytes = 10 << 20

// Options configures the HTTP side of a source.
type Options struct {
	Client            *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

type httpFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newHTTPFetcher(opts Options) *httpFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "NewsAggregator/1.0"
	}
	return &httpFetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: userAgent,
	}
}

// get performs a paced GET. Transport failures and 4xx/5xx answers wrap domain.ErrSourceUnavailable.
func (f *httpFetcher) get(ctx context.Context, target string, header http.Header) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: upstream returned %s", domain.ErrSourceUnavailable, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrSourceUnavailable, err)
	}
	return body, nil
}
