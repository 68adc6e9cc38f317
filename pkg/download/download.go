// Package download implements the content-addressed fetch described in
// spec.md §4.3: turn a URL into a local path idempotently, with HTTP
// range resumption through a sibling ".partial" file. Checksum
// verification is the caller's responsibility.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/clyde-pm/clyde/pkg/cache"
	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/utils"
)

const maxTimeoutRetries = 3

// Option configures a Fetch call.
type Option func(*config)

type config struct {
	task *task.Task
}

// WithTask attaches a progress-reporting task, in the teacher's style of
// passing an optional *task.Task through functional options rather than
// a context value.
func WithTask(t *task.Task) Option {
	return func(c *config) { c.task = t }
}

// Fetch implements the cache interface from spec.md §4.3:
// fetch(package, version, url) -> path. If the fully materialized file
// already exists it is returned immediately; otherwise it is downloaded
// (resuming a partial download if one exists) into the cache and the
// final path is returned.
func Fetch(ctx context.Context, downloadDir, pkg, version, rawURL string, opts ...Option) (string, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if path, ok := cache.Lookup(downloadDir, pkg, version, rawURL); ok {
		return path, nil
	}

	dest := cache.Path(downloadDir, pkg, version, rawURL)
	if _, err := cache.EnsureDir(downloadDir, pkg, version); err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, pkg, err)
	}

	scheme, err := parseScheme(rawURL)
	if err != nil {
		return "", clydeerr.New(clydeerr.UnsupportedUrl, pkg, err.Error(), nil)
	}

	switch scheme {
	case "file":
		if err := fetchFile(rawURL, dest); err != nil {
			return "", clydeerr.Wrap(clydeerr.DownloadFailed, pkg, err)
		}
	case "http", "https":
		if err := fetchHTTP(ctx, rawURL, dest, cfg.task); err != nil {
			return "", clydeerr.Wrap(clydeerr.DownloadFailed, pkg, err)
		}
	default:
		return "", clydeerr.New(clydeerr.UnsupportedUrl, pkg, fmt.Sprintf("unsupported scheme %q", scheme), nil)
	}

	return dest, nil
}

func parseScheme(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return u.Scheme, nil
}

func fetchFile(rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return utils.CopyFile(u.Path, dest)
}

// fetchHTTP downloads rawURL into dest via a sibling .partial file,
// resuming from the partial's current length with a byte range request.
// If the server ignores the range and sends a full 200 body, the partial
// is truncated and the download restarts from zero.
func fetchHTTP(ctx context.Context, rawURL, dest string, t *task.Task) error {
	partial := cache.PartialPath(dest)

	var lastErr error
	for attempt := 1; attempt <= maxTimeoutRetries; attempt++ {
		err := attemptDownload(ctx, rawURL, partial, t)
		if err == nil {
			return os.Rename(partial, dest)
		}
		if !isTimeout(err) {
			return err
		}
		lastErr = err
		if t != nil {
			t.V(2).Infof("download timed out (attempt %d/%d), retrying: %v", attempt, maxTimeoutRetries, err)
		}
	}
	return fmt.Errorf("download failed after %d attempts: %w", maxTimeoutRetries, lastErr)
}

func attemptDownload(ctx context.Context, rawURL, partial string, t *task.Task) error {
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening partial file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat partial file: %w", err)
	}
	offset := info.Size()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	client := &http.Client{Timeout: 0}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range request; restart from scratch.
		if offset > 0 {
			if err := f.Truncate(0); err != nil {
				return fmt.Errorf("truncating partial file: %w", err)
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
	case http.StatusPartialContent:
		// Resuming; nothing further to do.
	case http.StatusRequestedRangeNotSatisfiable:
		// Already fully downloaded from the server's point of view.
		return nil
	default:
		return fmt.Errorf("unexpected status %s for %s", resp.Status, rawURL)
	}

	var reader io.Reader = resp.Body
	if t != nil && resp.ContentLength > 0 {
		reader = &progressReader{Reader: resp.Body, task: t, total: offset + resp.ContentLength, current: offset}
	}

	if _, err := io.Copy(f, reader); err != nil {
		return err
	}
	return nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	for err != nil {
		if te, ok := err.(timeouter); ok && te.Timeout() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// progressReader reports download progress through a *task.Task, the
// way the teacher's own download progress bar does.
type progressReader struct {
	io.Reader
	task       *task.Task
	total      int64
	current    int64
	lastUpdate time.Time
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.current += int64(n)

	now := time.Now()
	if now.Sub(r.lastUpdate) >= 100*time.Millisecond {
		r.task.SetProgress(int(r.current), int(r.total))
		r.task.SetDescription(fmt.Sprintf("%s/%s", utils.FormatBytes(r.current), utils.FormatBytes(r.total)))
		r.lastUpdate = now
	}
	return n, err
}

// ParseBasename mirrors cache.Path's basename extraction, exposed for
// callers that need the asset's filename before a download completes.
func ParseBasename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(rawURL)
}
