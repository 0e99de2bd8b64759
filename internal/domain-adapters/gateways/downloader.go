package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces"
)

const userAgent = "fetchrun/1.0"

// Downloader fetches artifacts over HTTPS
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.httpClient = c
	}
}

// WithDownloadLogger sets the logger
func WithDownloadLogger(l interfaces.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = l
	}
}

// NewDownloader creates a new downloader. The default client has no
// timeout; callers bound the transfer through the context.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{},
		logger:     &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ValidateSourceURL checks that rawURL is an absolute https URL
func ValidateSourceURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: source URL is empty", entities.ErrTransfer)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid source URL: %w", entities.ErrTransfer, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: source URL must be absolute: %s", entities.ErrTransfer, rawURL)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: source URL must use https: %s", entities.ErrTransfer, rawURL)
	}
	return nil
}

// Download fetches url into dest, creating or truncating it, and returns
// the number of bytes written. Redirects are followed. A non-200 response
// fails before dest is touched. A failure mid-stream leaves whatever was
// written so far in dest.
func (d *Downloader) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	if err := ValidateSourceURL(rawURL); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create request: %w", entities.ErrTransfer, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: HTTP request failed: %w", entities.ErrTransfer, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d: %s", entities.ErrTransfer, resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: dest is the staging path chosen by the stager
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create file: %w", entities.ErrIO, err)
	}

	w := &trackingWriter{w: out}
	written, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()

	if copyErr != nil {
		if w.err != nil {
			return written, fmt.Errorf("%w: failed to write file: %w", entities.ErrIO, copyErr)
		}
		return written, fmt.Errorf("%w: failed to read response body: %w", entities.ErrTransfer, copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("%w: failed to close file: %w", entities.ErrIO, closeErr)
	}

	d.logger.Debug("artifact downloaded",
		interfaces.F("url", rawURL),
		interfaces.F("dest", dest),
		interfaces.F("bytes", written),
	)

	return written, nil
}

// trackingWriter remembers write errors so they can be told apart from
// read errors on the response body.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
