package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bespreking/internal/config"
)

const rosterCSV = "Gegeven door medewerkers,Gevolgd door groepen\nJansen,A3H1xy\nSmit,V4A\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "rooster.csv")
	require.NoError(t, os.WriteFile(input, []byte(rosterCSV), 0o600))

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Defaults.Rooms = "R1, R2"
	cfg.Defaults.StartTime = "09:00"
	cfg.Defaults.EndTime = "11:00"
	cfg.Publish = config.PublishConfig{
		Input:     input,
		OutputDir: filepath.Join(dir, "out"),
		Cron:      "*/5 * * * *",
		From:      "2025-03-13",
		To:        "2025-03-13",
	}
	return cfg
}

func TestNewRequiresSettings(t *testing.T) {
	_, err := New(config.DefaultConfig())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRunOnceWritesOutputsAndSkipsUnchanged(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(cfg)
	require.NoError(t, err)

	wrote, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, wrote)

	page, err := os.ReadFile(filepath.Join(cfg.Publish.OutputDir, HTMLFile))
	require.NoError(t, err)
	assert.Contains(t, string(page), "A3HA")
	assert.Contains(t, string(page), "Dag: 13/03/2025")

	ics, err := os.ReadFile(filepath.Join(cfg.Publish.OutputDir, ICSFile))
	require.NoError(t, err)
	assert.Contains(t, string(ics), "BEGIN:VCALENDAR")

	_, err = os.Stat(filepath.Join(cfg.Publish.OutputDir, XLSXFile))
	require.NoError(t, err)

	wrote, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, wrote)

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(cfg.Publish.Input, later, later))
	wrote, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestRunOnceReportsPlanErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.To = "2025-04-30"
	p, err := New(cfg)
	require.NoError(t, err)

	_, err = p.RunOnce(context.Background())
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(cfg.Publish.OutputDir, HTMLFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStartRejectsBadCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Cron = "every now and then"
	p, err := New(cfg)
	require.NoError(t, err)

	assert.Error(t, p.Start(context.Background()))
}

func TestStartPublishesImmediately(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx))

	_, err = os.Stat(filepath.Join(cfg.Publish.OutputDir, HTMLFile))
	assert.NoError(t, err)
}
