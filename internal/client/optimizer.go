// Package client holds outbound HTTP clients for auxiliary services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

const maxOptimizerResponseBytes = 8 << 20

// OptimizerClient talks to the external timetable optimizing service. The
// configured endpoints are tried in order; the first healthy answer wins and
// any transport error, non-2xx status or error-bearing body moves on to the
// next endpoint.
type OptimizerClient struct {
	endpoints []string
	client    *http.Client
	logger    *zap.Logger
}

// NewOptimizerClient builds a client over the ordered endpoint list.
func NewOptimizerClient(endpoints []string, timeout time.Duration, logger *zap.Logger) *OptimizerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimizerClient{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Enabled reports whether at least one endpoint is configured.
func (c *OptimizerClient) Enabled() bool {
	return len(c.endpoints) > 0
}

// Optimize posts the request to each endpoint in turn and returns the first
// usable response. When every endpoint fails the returned error wraps
// ErrOptimizerUnavailable so callers can fall back.
func (c *OptimizerClient) Optimize(ctx context.Context, payload dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if !c.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrOptimizerUnavailable, "no optimizer endpoints configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode optimizer payload")
	}

	var failures []string
	for _, endpoint := range c.endpoints {
		result, err := c.post(ctx, endpoint, body)
		if err == nil {
			c.logger.Info("optimizer answered",
				zap.String("endpoint", endpoint),
				zap.Int("assignments", len(result.Assignments)),
				zap.Float64("score", result.Score),
			)
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrOptimizerUnavailable.Code, appErrors.ErrOptimizerUnavailable.Status, "optimizer call cancelled")
		}
		c.logger.Warn("optimizer endpoint failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		failures = append(failures, fmt.Sprintf("%s: %v", endpoint, err))
	}

	return nil, appErrors.Clone(appErrors.ErrOptimizerUnavailable,
		"all optimizer endpoints failed: "+strings.Join(failures, "; "))
}

func (c *OptimizerClient) post(ctx context.Context, endpoint string, body []byte) (*dto.OptimizeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOptimizerResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var result dto.OptimizeResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("optimizer rejected the problem: %s", strings.Join(result.Errors, "; "))
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
