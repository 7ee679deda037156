// Package aiservice is the HTTP client for the remote AI microservice. It
// layers admission control (via the scheduler), per-endpoint metrics and
// classified retry with exponential backoff on top of every outbound call.
package aiservice

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/scheduler"
	"github.com/talenthub/ai-gateway/internal/utils"
)

const (
	contentType      = "application/json"
	defaultUserAgent = "talenthub/ai-gateway"
)

// RetryConfig controls the classified retry loop.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

// Validate reports the first retry configuration problem found.
func (r RetryConfig) Validate() error {
	if r.MaxAttempts <= 0 {
		return errors.New("retry: max attempts must be positive")
	}
	if r.InitialBackoff <= 0 {
		return errors.New("retry: initial backoff must be positive")
	}
	if r.Multiplier < 1 {
		return errors.New("retry: multiplier must be at least 1")
	}
	if r.MaxBackoff < r.InitialBackoff {
		return errors.New("retry: max backoff must not be below initial backoff")
	}
	return nil
}

// backoff returns the wait before the attempt following the given one,
// growing exponentially and capped at MaxBackoff.
func (r RetryConfig) backoff(attempt int) time.Duration {
	d := r.InitialBackoff
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * r.Multiplier)
		if d >= r.MaxBackoff {
			return r.MaxBackoff
		}
	}
	if d > r.MaxBackoff {
		return r.MaxBackoff
	}
	return d
}

// Config carries the startup-validated client settings.
type Config struct {
	// BaseURL is the scheme+host of the AI service.
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// Timeout bounds each individual attempt. It is the only bound on call
	// duration; there is no cancellation of an already-dispatched request.
	Timeout time.Duration
	Retry   RetryConfig
}

// Validate reports the first client configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("ai service base url is required")
	}
	if c.Timeout <= 0 {
		return errors.New("ai service timeout must be positive")
	}
	return c.Retry.Validate()
}

// Client performs resilient requests against the AI service. All attempts
// pass through the scheduler gate and are recorded in the metrics collector.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	baseURL string
	token   string
	retry   RetryConfig
	gate    *scheduler.Scheduler
	metrics *Collector
	logger  *zap.Logger

	// wait is swapped out by tests to observe backoff durations.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a Client. The scheduler is required; the collector may be a
// disabled one.
func New(cfg Config, gate *scheduler.Scheduler, metrics *Collector, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, errors.New("scheduler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		UserAgent:  defaultUserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		retry:      cfg.Retry,
		gate:       gate,
		metrics:    metrics,
		logger:     logger,
		wait:       utils.WaitFor,
	}, nil
}

// Metrics exposes the collector for status reporting.
func (c *Client) Metrics() *Collector {
	return c.metrics
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req
}
