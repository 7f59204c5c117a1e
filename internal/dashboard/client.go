// Package dashboard forwards detections to the monitoring dashboard and
// publishes crop images somewhere the dashboard can load them from.
//
// The dashboard exposes a small REST surface:
//   - POST   /api/detections  one detection report (JSON)
//   - DELETE /api/detections  remove every stored detection
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/metrics"
)

const (
	// DefaultBaseURL is where the dashboard runs in local development.
	DefaultBaseURL = "http://localhost:3000"

	detectionsPath = "/api/detections"
	sendTimeout    = 5 * time.Second
	clearTimeout   = 10 * time.Second
)

// Client talks to the dashboard API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.Metrics
}

// NewClient creates a dashboard client. Each call applies its own deadline,
// so the underlying http.Client carries none.
func NewClient(baseURL string, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    m,
	}
}

// BaseURL returns the dashboard root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is returned when the dashboard answers with a non-2xx status.
type StatusError struct {
	Method string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dashboard %s %s: status %d: %s", e.Method, detectionsPath, e.Code, e.Body)
}

// Send posts one report.
func (c *Client) Send(ctx context.Context, report Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err = c.do(ctx, http.MethodPost, body)
	c.metrics.DashboardSend(err == nil)
	if err != nil {
		return fmt.Errorf("send detection: %w", err)
	}
	log.Info().
		Str("trash_type", report.TrashType).
		Str("threat_level", report.ThreatLevel).
		Str("image", report.Image).
		Msg("Detection sent to dashboard")
	return nil
}

// Clear deletes every detection stored by the dashboard.
func (c *Client) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, clearTimeout)
	defer cancel()

	if err := c.do(ctx, http.MethodDelete, nil); err != nil {
		return fmt.Errorf("clear detections: %w", err)
	}
	log.Info().Str("dashboard", c.baseURL).Msg("Dashboard detections cleared")
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte) error {
	startTime := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+detectionsPath, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("url", req.URL.String()).Msg("Dashboard API request")
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Dashboard API response")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().Int("statusCode", resp.StatusCode).Dur("duration", duration).Msg("Dashboard API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), 200)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// truncate returns the first n bytes of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
