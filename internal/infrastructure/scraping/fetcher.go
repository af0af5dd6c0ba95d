// Package scraping fetches and parses grant listings from source websites.
// Pages are fetched politely (rate limited, identified UA) and parsed
// tolerantly: malformed listings are skipped with a warning, never fatal.
package scraping

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

const maxBodyBytes = 10 << 20 // 10 MiB page cap

// Fetcher is a rate-limited HTTP client for grant sources.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	ticker    <-chan time.Time
	logger    logging.Logger
}

// NewFetcher builds a fetcher from configuration.
func NewFetcher(cfg config.ScrapingConfig, log logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2.0
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "GrantScope/1.0 (+https://github.com/turtacn/GrantScope)"
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	interval := time.Duration(float64(time.Second) / rps)
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		retries:   retries,
		ticker:    time.Tick(interval),
		logger:    log.Named("fetcher"),
	}
}

// Fetch GETs url and returns the body, retrying transient failures with
// backoff.  The per-fetcher rate limit applies across goroutines.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "fetch cancelled")
		case <-f.ticker:
		}

		body, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		f.logger.Warn("fetch attempt failed, retrying",
			logging.String("url", url), logging.Int("attempt", attempt+1), logging.Err(err))

		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "fetch cancelled")
		case <-time.After(backoff):
		}
	}
	return nil, apperrors.Wrap(lastErr, apperrors.ErrCodeGrantSourceFailed, "fetching %s", url)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, apperrors.New(apperrors.ErrCodeGrantSourceFailed, "server returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, apperrors.New(apperrors.ErrCodeGrantSourceFailed, "server returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, err
	}
	return data, false, nil
}
