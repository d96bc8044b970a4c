// Package publish regenerates a schedule from a spreadsheet on disk on a
// cron schedule and writes the rendered outputs into a directory for static
// hosting.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/plan"
	"bespreking/internal/render"
	"bespreking/internal/roster"
)

const (
	HTMLFile = "schedule.html"
	ICSFile  = "schedule.ics"
	XLSXFile = "schedule.xlsx"
)

var ErrDisabled = errors.New("publish: input, output_dir, from and to must be set")

// Publisher owns the periodic regeneration job.
type Publisher struct {
	cfg *config.Config

	mu      sync.Mutex
	lastMod time.Time
}

// New returns a Publisher for cfg.Publish.
func New(cfg *config.Config) (*Publisher, error) {
	if !cfg.Publish.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{cfg: cfg}, nil
}

// RunOnce regenerates the outputs if the input file changed since the last
// successful run. It reports whether new files were written.
func (p *Publisher) RunOnce(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	pc := p.cfg.Publish
	info, err := os.Stat(pc.Input)
	if err != nil {
		return false, fmt.Errorf("publish: stat input: %w", err)
	}
	if info.ModTime().Equal(p.lastMod) {
		appLog.Debug("publish skipped; input unchanged", "input", pc.Input)
		return false, nil
	}

	sheet, err := roster.ReadFile(pc.Input)
	if err != nil {
		return false, fmt.Errorf("publish: read input: %w", err)
	}

	form := plan.DefaultForm(p.cfg.Defaults)
	form.From = pc.From
	form.To = pc.To
	req, err := plan.NewRequest(p.cfg, sheet, form)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	res, err := plan.Run(req)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}

	var page bytes.Buffer
	if err := render.HTML(&page, res, "Leerlingbespreking"); err != nil {
		return false, fmt.Errorf("publish: render html: %w", err)
	}

	if err := os.MkdirAll(pc.OutputDir, 0o755); err != nil {
		return false, err
	}
	if err := config.WriteFileAtomic(filepath.Join(pc.OutputDir, HTMLFile), page.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("publish: write html: %w", err)
	}
	if err := config.WriteFileAtomic(filepath.Join(pc.OutputDir, ICSFile), render.ICS(res), 0o644); err != nil {
		return false, fmt.Errorf("publish: write ics: %w", err)
	}
	book, err := render.XLSX(res)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	if err := config.WriteFileAtomic(filepath.Join(pc.OutputDir, XLSXFile), book, 0o644); err != nil {
		return false, fmt.Errorf("publish: write xlsx: %w", err)
	}

	p.lastMod = info.ModTime()
	appLog.Info("schedule published",
		"run_id", res.ID,
		"output_dir", pc.OutputDir,
		"unscheduled", len(res.Unscheduled),
		"conflicts", len(res.Conflicts),
	)
	return true, nil
}

// Start runs RunOnce immediately and then on every tick of
// cfg.Publish.Cron until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(p.cfg.Publish.Cron, func() {
		if _, err := p.RunOnce(ctx); err != nil {
			appLog.Error("publish run failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("publish: invalid cron %q: %w", p.cfg.Publish.Cron, err)
	}

	if _, err := p.RunOnce(ctx); err != nil {
		appLog.Error("initial publish run failed", err)
	}

	c.Start()
	appLog.Info("publisher started", "cron", p.cfg.Publish.Cron, "input", p.cfg.Publish.Input)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("publisher stopped")
	}()
	return nil
}
