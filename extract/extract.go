// Package extract downloads raw source files ahead of the pipeline. It is a
// thin collaborator: a bounded worker pool with fixed per-URL retries, no
// shared state between workers.
package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Download is one URL to fetch into a local file.
type Download struct {
	URL      string
	Filename string
}

// Result reports the outcome of one download.
type Result struct {
	Download Download
	Err      error
}

// Downloader fetches a batch of URLs concurrently. Each worker owns its
// output file; a URL that exhausts its retries is logged and abandoned
// without aborting the siblings.
type Downloader struct {
	client     *http.Client
	workers    int
	retries    int
	retryDelay time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithRetries sets the per-URL retry count and the fixed delay between
// attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.retries = n
		}
		d.retryDelay = delay
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// NewDownloader creates a downloader with the default pool of 4 workers and
// 3 attempts per URL.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client:     &http.Client{Timeout: 60 * time.Second},
		workers:    4,
		retries:    3,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchAll downloads every entry into destDir. The returned results carry
// one entry per download in input order; failed downloads carry their error.
func (d *Downloader) FetchAll(ctx context.Context, destDir string, downloads []Download) ([]Result, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	results := make([]Result, len(downloads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, dl := range downloads {
		g.Go(func() error {
			err := d.fetchWithRetries(gctx, dl, filepath.Join(destDir, dl.Filename))
			if err != nil {
				log.Printf("download failed, abandoning %s: %v", dl.URL, err)
			}
			results[i] = Result{Download: dl, Err: err}
			// Per-URL failures never abort the batch.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Downloader) fetchWithRetries(ctx context.Context, dl Download, destPath string) error {
	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		if err := d.fetchOnce(ctx, dl.URL, destPath); err != nil {
			lastErr = err
			log.Printf("download attempt %d/%d for %s failed: %v", attempt, d.retries, dl.URL, err)
			if attempt < d.retries {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(d.retryDelay):
				}
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (d *Downloader) fetchOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}
