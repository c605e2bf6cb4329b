// Package fetch materializes remote or local archive locators at a local path.
//
// A locator is either an http(s) URL or a filesystem path. Fetching is
// best-effort: a failed fetch still reports the deterministic local path so
// callers can decide how to degrade, and a present-but-corrupt file is a
// parse-time concern, not a fetch-time guarantee.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/opencontainers/go-digest"
)

// ErrFetchFailed is returned when a locator cannot be materialized locally.
// The accompanying local path is still valid; its content is not.
var ErrFetchFailed = errors.New("fetch: fetch failed")

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 10 * time.Second
	defaultDirPerm      = 0o700
)

// Fetcher downloads or copies archive locators into a destination directory.
type Fetcher struct {
	rclient *retryablehttp.Client
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the underlying HTTP client used for remote locators.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.rclient.HTTPClient = client
		}
	}
}

// WithRetryMax sets the maximum number of HTTP retries.
func WithRetryMax(n int) Option {
	return func(f *Fetcher) {
		f.rclient.RetryMax = n
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with retrying HTTP transport defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		rclient: &retryablehttp.Client{
			HTTPClient:   &nethttp.Client{},
			RetryWaitMin: defaultRetryWaitMin,
			RetryWaitMax: defaultRetryWaitMax,
			RetryMax:     defaultRetryMax,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LocalPath returns the deterministic destination for a locator: its base
// name joined with destDir.
func LocalPath(locator, destDir string) string {
	return filepath.Join(destDir, baseName(locator))
}

// Ensure makes the locator's content available at its local path.
//
// When useCache is true and the local file already exists, the path is
// returned without touching the source. Otherwise the locator is fetched;
// on failure the same path is returned together with an error wrapping
// [ErrFetchFailed], and any file at the path is left as-is.
func (f *Fetcher) Ensure(ctx context.Context, locator, destDir string, useCache bool) (string, error) {
	localPath := LocalPath(locator, destDir)
	if useCache {
		if _, err := os.Stat(localPath); err == nil {
			f.log().Debug("reusing local copy", "locator", locator, "path", localPath)
			return localPath, nil
		}
	}

	if err := os.MkdirAll(destDir, defaultDirPerm); err != nil {
		return localPath, fmt.Errorf("%w: %s: %v", ErrFetchFailed, locator, err)
	}

	start := time.Now()
	var (
		dgst digest.Digest
		err  error
	)
	if isHTTP(locator) {
		dgst, err = f.download(ctx, locator, localPath)
	} else {
		dgst, err = copyLocal(locator, localPath)
	}
	if err != nil {
		f.log().Error("fetch failed", "locator", locator, "path", localPath, "err", err)
		return localPath, fmt.Errorf("%w: %s: %v", ErrFetchFailed, locator, err)
	}
	f.log().Info("fetched resource",
		"locator", locator,
		"path", localPath,
		"digest", dgst,
		"elapsed", time.Since(start))
	return localPath, nil
}

func (f *Fetcher) download(ctx context.Context, locator, localPath string) (digest.Digest, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, locator, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.rclient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != nethttp.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	return writeAtomic(localPath, resp.Body)
}

func copyLocal(srcPath, localPath string) (digest.Digest, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return writeAtomic(localPath, src)
}

// writeAtomic stages content in a temp file and renames it into place, so a
// partially fetched file is never visible at the final path. The content
// digest is computed on the way through.
func writeAtomic(localPath string, r io.Reader) (digest.Digest, error) {
	dir := filepath.Dir(localPath)
	tmp, err := os.CreateTemp(dir, "fetch-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), r); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return digester.Digest(), nil
}

func (f *Fetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.logger
}

func isHTTP(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// baseName extracts the final path element of a locator, for URLs and
// filesystem paths alike.
func baseName(locator string) string {
	if isHTTP(locator) {
		u, _ := url.Parse(locator)
		return path.Base(u.Path)
	}
	return filepath.Base(locator)
}
