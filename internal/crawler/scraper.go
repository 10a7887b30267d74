package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"microharvest/internal/config"
	"microharvest/pkg/utils"

	"golang.org/x/time/rate"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body too large")
)

// Scraper fetches upstream documents with config-driven retry and rate limiting.
type Scraper struct {
	client      *http.Client
	limiter     *rate.Limiter
	headers     http.Header
	retryPolicy config.RetryPolicy
	maxBodyKb   int
}

// ScraperOptions configures a Scraper.
type ScraperOptions struct {
	HTTPClient  *http.Client
	UserAgent   string
	RetryPolicy config.RetryPolicy
	// Interval is the minimum delay between requests; zero disables limiting.
	Interval  time.Duration
	MaxBodyKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithOptions(ScraperOptions{
		RetryPolicy: config.DefaultRetryPolicy(),
	})
}

// NewScraperWithOptions creates a new scraper with a custom retry policy and rate limit.
func NewScraperWithOptions(opts ScraperOptions) *Scraper {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.RetryPolicy.GetTimeout()}
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = "microharvest/1.0"
	}

	if opts.MaxBodyKb <= 0 {
		opts.MaxBodyKb = 32 * 1024
	}

	if opts.RetryPolicy.MaxAttempts < 1 {
		opts.RetryPolicy.MaxAttempts = 1
	}

	return &Scraper{
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		headers:     utils.BuildHeaders(opts.UserAgent, nil),
		retryPolicy: opts.RetryPolicy,
		maxBodyKb:   opts.MaxBodyKb,
	}
}

// NewScraperFromConfig builds a scraper from the harvester configuration.
func NewScraperFromConfig(cfg *config.Config) *Scraper {
	return NewScraperWithOptions(ScraperOptions{
		UserAgent:   cfg.Upstream.UserAgent,
		RetryPolicy: cfg.Retry,
		Interval:    cfg.RateLimit.Interval(),
		MaxBodyKb:   cfg.Upstream.MaxBodyKb,
	})
}

// Fetch returns the body of url, retrying transport errors and temporary statuses.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if delay := s.retryPolicy.GetRetryDelay(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, retry, err := s.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)

		if !retry || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	utils.ApplyHeaders(req, s.headers)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// maxBodyKb is in KB, convert to bytes
	limit := int64(s.maxBodyKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, false, fmt.Errorf("%w: response exceeds %d KB", ErrBodyTooLarge, s.maxBodyKb)
	}

	return body, false, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway,
		http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}

	return false
}
