// Package archive retrieves raw TAF products from the Iowa Environmental
// Mesonet AFOS archive and feeds them into the local store.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ohaynold/artaf/internal/observability"
)

// Client downloads yearly per-station product archives.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an archive client against the given retrieve endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchYear downloads one station-year of TAF products as a ZIP archive.
// Transient failures are retried with exponential backoff; HTTP 4xx
// responses are not retried.
func (c *Client) FetchYear(ctx context.Context, pil string, year int) ([]byte, error) {
	params := url.Values{
		"pil":   {pil},
		"sdate": {fmt.Sprintf("%d-01-01T00:00Z", year)},
		"edate": {fmt.Sprintf("%d-01-01T00:00Z", year + 1)},
		"fmt":   {"zip"},
		"limit": {"9999"},
		"order": {"asc"},
	}
	requestURL := c.baseURL + "?" + params.Encode()

	var body []byte
	operation := func() error {
		start := time.Now()
		data, err := c.get(ctx, requestURL)
		c.metrics.DownloadDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.DownloadRequests.WithLabelValues("error").Inc()
			c.logger.Warn("archive download failed", "pil", pil, "year", year, "error", err)
			return err
		}
		c.metrics.DownloadRequests.WithLabelValues("success").Inc()
		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", pil, year, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, backoff.Permanent(fmt.Errorf("archive returned %s", resp.Status))
	default:
		return nil, fmt.Errorf("archive returned %s", resp.Status)
	}
}
