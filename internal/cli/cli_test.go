package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bespreking/internal/config"
	"bespreking/internal/slots"
)

const rosterCSV = "Gegeven door medewerkers,Gevolgd door groepen\n" +
	"Jansen,A3H1xy\n" +
	"Bakker,A3H1xy\n" +
	"Jansen,V4A\n" +
	"Smit,H2B\n"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// setup returns a fresh config path and a roster file in a temp dir.
func setup(t *testing.T) (cfgPath, rosterPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	rosterPath = filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte(rosterCSV), 0o644))
	return cfgPath, rosterPath
}

func TestScheduleCommand(t *testing.T) {
	cfgPath, rosterPath := setup(t)
	dir := filepath.Dir(cfgPath)
	htmlPath := filepath.Join(dir, "schedule.html")
	icsPath := filepath.Join(dir, "schedule.ics")
	xlsxPath := filepath.Join(dir, "schedule.xlsx")

	out, err := runCLI(t,
		"--config", cfgPath,
		"schedule", rosterPath,
		"--rooms", "R1,R2",
		"--from", "2025-03-13",
		"--start", "09:00",
		"--end", "10:00",
		"--html", htmlPath,
		"--ics", icsPath,
		"--xlsx", xlsxPath,
	)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Dag:")
	assert.Contains(t, out, "A3HA")
	assert.Contains(t, out, "A3HC, V4A")
	assert.NotContains(t, out, "Conflicten")

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), `data-ready="true"`)

	cal, err := os.ReadFile(icsPath)
	require.NoError(t, err)
	assert.Contains(t, string(cal), "BEGIN:VCALENDAR")
	assert.Contains(t, string(cal), "A3HA")

	book, err := os.ReadFile(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(book[:2]))

	// First run writes the default config.
	_, err = os.Stat(cfgPath)
	assert.NoError(t, err)
}

func TestScheduleCommandTrace(t *testing.T) {
	cfgPath, rosterPath := setup(t)

	out, err := runCLI(t,
		"--config", cfgPath,
		"schedule", rosterPath,
		"--rooms", "R1,R2",
		"--from", "2025-03-13",
		"--start", "09:00",
		"--end", "10:00",
		"--overlap", "1",
		"--trace",
	)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Spreadsheet read, rows: 4")
	assert.Contains(t, out, "Timeslots generated: 2")
	assert.Contains(t, out, "Class A3HA scheduled in timeslot 0 in room R1")
}

func TestScheduleCommandRangeTooLarge(t *testing.T) {
	cfgPath, rosterPath := setup(t)

	_, err := runCLI(t,
		"--config", cfgPath,
		"schedule", rosterPath,
		"--from", "2025-03-01",
		"--to", "2025-03-16",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.ErrRangeTooLarge)
}

func TestScheduleCommandMissingFile(t *testing.T) {
	cfgPath, _ := setup(t)

	_, err := runCLI(t, "--config", cfgPath, "schedule", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfgPath, "schedule")
	assert.Error(t, err)
}

func TestClustersCommands(t *testing.T) {
	cfgPath, _ := setup(t)

	out, err := runCLI(t, "--config", cfgPath, "clusters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "A3H1: A3HA, A3HB, A3HC")

	out, err = runCLI(t, "--config", cfgPath, "clusters", "set", "V5X1", "V5XA,V5XB", "V5XC")
	require.NoError(t, err)
	assert.Contains(t, out, "V5X1: V5XA, V5XB, V5XC")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"V5XA", "V5XB", "V5XC"}, cfg.Clusters["V5X1"])

	_, err = runCLI(t, "--config", cfgPath, "clusters", "delete", "V5X1")
	require.NoError(t, err)

	cfg, err = config.Load(cfgPath)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Clusters, "V5X1")
	assert.Contains(t, cfg.Clusters, "A3H1")

	_, err = runCLI(t, "--config", cfgPath, "clusters", "delete", "V5X1")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfgPath, "clusters", "set", "V5X1", " , ")
	assert.Error(t, err)
}
