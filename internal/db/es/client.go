// Package es is a thin HTTP client for the Elasticsearch search backend.
// It speaks the query DSL built by internal/domain/query and reports
// backend timeouts as domain.ErrBackendTimeout so callers can fail the
// whole request.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/metrics"
)

// Config holds connection parameters for the search backend.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client executes search requests against one Elasticsearch cluster. All
// calls pass through a shared circuit breaker so a struggling cluster
// sheds load instead of queueing it.
type Client struct {
	base     string
	username string
	password string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "elasticsearch",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		breaker:  breaker,
	}, nil
}

// Search runs one request against the given index.
func (c *Client) Search(ctx context.Context, index string, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	start := time.Now()
	raw, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, c.base+"/"+index+"/_search", body)
	})
	metrics.SearchRequestDuration.WithLabelValues(index).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(index, "error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", domain.ErrBackendTimeout)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
		}
		return nil, err
	}

	resp := raw.(*Response)
	if resp.TimedOut {
		metrics.SearchRequestsTotal.WithLabelValues(index, "error").Inc()
		return nil, fmt.Errorf("%w: search timed out on %s", domain.ErrBackendTimeout, index)
	}
	metrics.SearchRequestsTotal.WithLabelValues(index, "ok").Inc()
	return resp, nil
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base, nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping search backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping search backend: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.auth(httpReq)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		return nil, fmt.Errorf("search returned status %d: %s", httpResp.StatusCode, msg)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

func (c *Client) auth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
