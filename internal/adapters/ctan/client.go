// Package ctan queries the CTAN JSON API.
package ctan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Client errors.
var (
	ErrFetchFailed  = errors.New("fetch failed")
	ErrNetworkError = errors.New("network error")
	ErrBadResponse  = errors.New("unexpected response")
)

// DefaultBaseURL is the CTAN API endpoint.
const DefaultBaseURL = "https://ctan.org/json/2.0"

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the base URL of the API
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// UserAgent is the User-Agent header value
	UserAgent string
}

// DefaultClientConfig returns the public CTAN endpoint.
func DefaultClientConfig(userAgent string) ClientConfig {
	return ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		UserAgent: userAgent,
	}
}

// Client provides HTTP access to the CTAN API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new CTAN client.
func NewClient(config ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type pkgResponse struct {
	Version struct {
		Number string `json:"number"`
		Date   string `json:"date"`
	} `json:"version"`
}

// LatestRelease returns the year of the TeX Live release currently
// distributed on CTAN.
func (c *Client) LatestRelease(ctx context.Context) (int, error) {
	data, err := c.fetch(ctx, c.config.BaseURL+"/pkg/texlive")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch texlive package: %w", err)
	}

	var resp pkgResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	year, err := strconv.Atoi(strings.TrimSpace(resp.Version.Number))
	if err != nil {
		return 0, fmt.Errorf("%w: version %q", ErrBadResponse, resp.Version.Number)
	}
	return year, nil
}

// fetch performs an HTTP GET request.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed", ErrNetworkError)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrNetworkError)
	}
	return data, nil
}

// Ensure Client implements ports.ReleaseLookup.
var _ ports.ReleaseLookup = (*Client)(nil)
