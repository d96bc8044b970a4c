package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for a rendered schedule page.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 900
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based screenshot capture.
// Exactly one of URL or HTML must be set.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/api/runs/<id>".
	URL string

	// HTML is a complete page to capture. It is written to a temporary
	// file and loaded via file://.
	HTML []byte

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if (o.URL == "") == (len(o.HTML) == 0) {
		return errors.New("capture: exactly one of URL or HTML is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// PNG launches a headless Chromium instance via chromedp, loads the page,
// waits until `[data-ready="true"]` is visible and returns a full-page PNG
// screenshot.
func PNG(parentCtx context.Context, opts Options) ([]byte, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	target := opts.URL
	if len(opts.HTML) > 0 {
		dir, err := os.MkdirTemp("", "bespreking-capture-*")
		if err != nil {
			return nil, fmt.Errorf("capture: temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		page := filepath.Join(dir, "schedule.html")
		if err := os.WriteFile(page, opts.HTML, 0o600); err != nil {
			return nil, fmt.Errorf("capture: write page: %w", err)
		}
		target = "file://" + page
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// WriteFile captures the page and writes the PNG to path.
func WriteFile(ctx context.Context, path string, opts Options) error {
	png, err := PNG(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
