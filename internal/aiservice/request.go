package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/logger"
)

// postJSON sends payload to path and decodes the response into target,
// retrying classified-transient failures with exponential backoff. Each
// attempt is individually admitted by the scheduler so retries also respect
// the rate limit.
func (c *Client) postJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal request for %s", path)
	}

	data, err := c.doWithRetry(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrapf(err, "decode response from %s", path)
	}

	return nil
}

// getJSON performs an unretried-body GET through the same retry pipeline.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	data, err := c.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrapf(err, "decode response from %s", path)
	}

	return nil
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		data, err := c.attempt(ctx, method, path, body)
		if err == nil {
			return data, nil
		}

		typed, ok := AsError(err)
		if !ok {
			// Admission or context failure, not an upstream response.
			return nil, err
		}

		if !typed.retryable() || attempt >= c.retry.MaxAttempts {
			return nil, typed
		}

		backoff := c.retry.backoff(attempt)
		c.logger.Debug("retrying ai service call",
			zap.String(logger.FieldEndpoint, path),
			zap.Int("attempt", attempt),
			zap.Int("status", typed.Status),
			zap.Duration("backoff", backoff),
		)

		if werr := c.wait(ctx, backoff); werr != nil {
			return nil, werr
		}
	}
}

// attempt performs a single scheduled request and records its outcome.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.gate.Release()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", path)
	}
	req = c.setHeaders(req)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		typed := unreachable(err)
		c.metrics.Record(path, latency, typed)
		return nil, typed
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		typed := unreachable(err)
		c.metrics.Record(path, latency, typed)
		return nil, typed
	}

	if resp.StatusCode >= 400 {
		typed := classify(resp.StatusCode, data)
		c.metrics.Record(path, latency, typed)
		return nil, typed
	}

	c.metrics.Record(path, latency, nil)
	return data, nil
}
