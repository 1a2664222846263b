// Package download fetches installer archives over HTTP.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Download errors.
var (
	ErrFetchFailed  = errors.New("fetch failed")
	ErrNetworkError = errors.New("network error")
	ErrServerError  = errors.New("server error")
	ErrTooLarge     = errors.New("response too large")
)

// Config configures the downloader.
type Config struct {
	// Timeout bounds a single attempt
	Timeout time.Duration
	// UserAgent is the User-Agent header value
	UserAgent string
	// MaxBytes bounds the size of a download
	MaxBytes int64
	// RetryDelay is the pause before the single retry
	RetryDelay time.Duration
}

// DefaultConfig returns limits suited to the TeX Live installer archives.
func DefaultConfig(userAgent string) Config {
	return Config{
		Timeout:    10 * time.Minute,
		UserAgent:  userAgent,
		MaxBytes:   1 << 30,
		RetryDelay: 5 * time.Second,
	}
}

// Downloader implements ports.Downloader.
type Downloader struct {
	config     Config
	httpClient *http.Client
	logger     ports.Logger
}

// New creates a Downloader.
func New(config Config, logger ports.Logger) *Downloader {
	return &Downloader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Download writes the resource at url to dest. Network failures and server
// errors are retried once.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	err := d.attempt(ctx, url, dest)
	if err == nil || !transient(err) {
		return err
	}

	d.logger.Warn(ctx, "Download failed, retrying", ports.F("url", url), ports.Err(err))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.config.RetryDelay):
	}
	return d.attempt(ctx, url, dest)
}

func transient(err error) bool {
	return errors.Is(err, ErrNetworkError) || errors.Is(err, ErrServerError)
}

func (d *Downloader) attempt(ctx context.Context, url, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: request creation failed", ErrFetchFailed)
	}
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	if d.config.MaxBytes > 0 && resp.ContentLength > d.config.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	var body io.Reader = resp.Body
	if d.config.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, d.config.MaxBytes+1)
	}
	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	if d.config.MaxBytes > 0 && n > d.config.MaxBytes {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.config.MaxBytes)
	}

	d.logger.Debug(ctx, "Downloaded", ports.F("url", url), ports.F("bytes", n))
	return os.Rename(tmp, dest)
}

// Ensure Downloader implements ports.Downloader.
var _ ports.Downloader = (*Downloader)(nil)
