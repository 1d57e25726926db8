package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	userAgent      = "Mozilla/5.0"
	acceptFeeds    = "application/rss+xml, application/xml, text/xml"
	cacheBustParam = "t"
	maxBodySize    = 10 << 20
)

// StatusError is returned when a feed answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client загружает документы RSS-лент с повторными попытками.
type Client struct {
	http       *http.Client
	retries    uint64
	retryDelay time.Duration
}

type Option func(*Client)

// WithRetries sets how many extra attempts a transient failure gets.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = uint64(n)
		}
	}
}

// WithRetryDelay sets the first backoff interval.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// NewClient wraps httpClient; a nil client gets a 10 second timeout.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		http:       httpClient,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheBustURL sets the t query parameter of feedURL to stamp in Unix milliseconds,
// keeping whatever query the URL already carries.
func CacheBustURL(feedURL string, stamp time.Time) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(cacheBustParam, strconv.FormatInt(stamp.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch загружает ленту по feedURL с параметром t=stamp и возвращает тело ответа.
func (c *Client) Fetch(ctx context.Context, feedURL string, stamp time.Time) ([]byte, error) {
	target, err := CacheBustURL(feedURL, stamp)
	if err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", acceptFeeds)
		req.Header.Set("Cache-Control", "no-store")
		req.Header.Set("Pragma", "no-cache")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{URL: feedURL, StatusCode: resp.StatusCode}
			if retryable(resp.StatusCode) {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return err
	}

	if err := backoff.Retry(operation, c.backOff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = 10 * c.retryDelay
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
