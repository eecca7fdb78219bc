// Package intercom provides a thin client for the Intercom REST API.
// Responses are returned verbatim as JSON; the client never retries.
package intercom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.intercom.io"
	DefaultVersion = "2.14"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Intercom client.
type Config struct {
	Token   string        `yaml:"token" env:"INTERCOM_ACCESS_TOKEN" required:"true"`
	BaseURL string        `yaml:"base_url" env:"INTERCOM_API_BASE"`
	Version string        `yaml:"version" env:"INTERCOM_API_VERSION"`
	Timeout time.Duration `yaml:"timeout" env:"INTERCOM_TIMEOUT"`
}

// DefaultConfig returns a Config with sensible defaults and no token.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Version: DefaultVersion,
		Timeout: DefaultTimeout,
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Intercom API error: %d - %s", e.StatusCode, e.Body)
}

// noContent is returned in place of an empty 204 body.
var noContent = json.RawMessage(`{"success":true}`)

// Client issues authenticated requests against the Intercom API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. Zero-valued optional fields take their defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("Intercom access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}, nil
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Call sends one request to endpoint (a path such as "/articles/1") and
// returns the response body. body is only sent for POST and PUT.
func (c *Client) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	start := time.Now()

	var reqBody io.Reader
	hasBody := body != nil && (method == http.MethodPost || method == http.MethodPut)
	if hasBody {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Intercom-Version", c.cfg.Version)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("intercom request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode == http.StatusNoContent {
		return noContent, nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("decode response: invalid JSON from %s %s", method, endpoint)
	}
	return json.RawMessage(respBody), nil
}
