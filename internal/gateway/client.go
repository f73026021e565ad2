// Package gateway is the HTTP client for the analysis service. It builds
// absolute URLs from endpoint names, attaches JSON and request-id headers,
// bounds each call with a timeout, and retries idempotent GETs.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/logging"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int           // extra attempts for GET requests
	RetryDelay    time.Duration // first backoff, doubled per attempt
	HTTPClient    *http.Client
}

// Client talks to the analysis service.
type Client struct {
	baseURL       string
	timeout       time.Duration
	retryAttempts int
	retryDelay    time.Duration
	http          *http.Client
	log           zerolog.Logger
	requestID     func() string
	sleep         func(ctx context.Context, d time.Duration) error
}

// New creates a Client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		timeout:       timeout,
		retryAttempts: max(opts.RetryAttempts, 0),
		retryDelay:    opts.RetryDelay,
		http:          httpClient,
		log:           logging.Component("gateway"),
		requestID:     func() string { return uuid.NewString() },
		sleep:         sleepCtx,
	}
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BuildURL turns an endpoint into an absolute URL. Absolute URLs pass
// through unchanged.
func (c *Client) BuildURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// RequestOption customises a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

// WithHeader sets a header on the request, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers.Set(key, value)
	}
}

// Request issues method against endpoint with body encoded as JSON (nil for
// no body). The caller owns the returned response body.
//
// A request that outlives the client timeout is aborted and reported as
// *TimeoutError. Other transport errors are returned unwrapped. GET requests
// are retried with exponential backoff on transport errors and 5xx
// responses; other methods are never retried.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	rc := requestConfig{headers: http.Header{}}
	rc.headers.Set("Content-Type", "application/json")
	rc.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(&rc)
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retryAttempts
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			c.log.Debug().Ctx(ctx).
				Str("method", method).
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying request")
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return nil, sleepErr
			}
		}

		resp, err = c.do(ctx, method, endpoint, payload, rc.headers)
		if !c.shouldRetry(ctx, resp, err) || attempt == attempts-1 {
			break
		}
		if resp != nil {
			drainAndClose(resp.Body)
		}
	}

	return resp, err
}

func (c *Client) shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, headers http.Header) (*http.Response, error) {
	url := c.BuildURL(endpoint)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = headers.Clone()
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", c.requestID())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			c.log.Warn().Ctx(ctx).Str("method", method).Str("url", url).Dur("timeout", c.timeout).Msg("request timed out")
			return nil, &TimeoutError{Method: method, URL: url, Limit: c.timeout}
		}
		return nil, err
	}

	c.log.Debug().Ctx(ctx).
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	// The timer stays armed while the caller reads the body and is released
	// when the body is closed.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
