package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "bespreking/internal/log"
)

// ClusterMapping expands a 4-character base group code into one or more
// class codes. A base code absent from the mapping is scheduled as itself.
type ClusterMapping map[string][]string

// Clone returns a deep copy so callers can mutate without touching cfg.
func (m ClusterMapping) Clone() ClusterMapping {
	out := make(ClusterMapping, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Bases returns the mapped base codes in sorted order.
func (m ClusterMapping) Bases() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set replaces the codes for base. Codes are trimmed and empty entries dropped.
func (m ClusterMapping) Set(base string, codes []string) error {
	base = strings.TrimSpace(base)
	if base == "" {
		return errors.New("cluster base code is empty")
	}
	clean := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return errors.New("no valid cluster codes")
	}
	m[base] = clean
	return nil
}

// DefaultClusterMapping is the mapping shipped on first run.
func DefaultClusterMapping() ClusterMapping {
	return ClusterMapping{
		"A3H1": {"A3HA", "A3HB", "A3HC"},
		"A3H2": {"A3HA", "A3HB", "A3HC"},
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ColumnsConfig names the spreadsheet header cells that carry the teacher
// and the group of a row.
type ColumnsConfig struct {
	Teacher string `yaml:"teacher" json:"teacher"`
	Group   string `yaml:"group" json:"group"`
}

// DefaultsConfig pre-fills the scheduling form and CLI flags.
type DefaultsConfig struct {
	// Rooms is the comma separated room list.
	Rooms       string `yaml:"rooms" json:"rooms"`
	StartTime   string `yaml:"start_time" json:"start_time"`
	EndTime     string `yaml:"end_time" json:"end_time"`
	SlotMinutes int    `yaml:"slot_minutes" json:"slot_minutes"`
	MaxOverlap  int    `yaml:"max_overlap" json:"max_overlap"`
}

// PublishConfig drives periodic regeneration of a schedule from a file on disk.
type PublishConfig struct {
	// Input is the spreadsheet to read. Publishing is disabled when empty.
	Input string `yaml:"input" json:"input"`
	// OutputDir receives schedule.html and schedule.ics.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// Cron is a standard 5-field cron expression (e.g. "*/15 * * * *").
	Cron string `yaml:"cron" json:"cron"`
	// From / To are calendar dates (YYYY-MM-DD) of the published range.
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Enabled reports whether publishing has enough settings to run.
func (p PublishConfig) Enabled() bool {
	return p.Input != "" && p.OutputDir != "" && p.From != "" && p.To != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone in which timeslots are generated.
	Timezone string `yaml:"timezone" json:"timezone"`

	Columns  ColumnsConfig  `yaml:"columns" json:"columns"`
	Defaults DefaultsConfig `yaml:"defaults" json:"defaults"`

	// Clusters is the user-editable cluster mapping.
	Clusters ClusterMapping `yaml:"clusters" json:"clusters"`

	// ClosuresFile is an optional iCalendar file; days covered by its
	// events get no timeslots.
	ClosuresFile string `yaml:"closures_file,omitempty" json:"closures_file,omitempty"`

	Publish PublishConfig `yaml:"publish" json:"publish"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen        = "127.0.0.1:8080"
	defaultTimezone      = "Europe/Amsterdam"
	defaultTeacherColumn = "Gegeven door medewerkers"
	defaultGroupColumn   = "Gevolgd door groepen"
	defaultStartTime     = "08:30"
	defaultEndTime       = "16:30"
	defaultSlotMinutes   = 30
	defaultPublishCron   = "*/15 * * * *"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		Timezone: defaultTimezone,
		Columns: ColumnsConfig{
			Teacher: defaultTeacherColumn,
			Group:   defaultGroupColumn,
		},
		Defaults: DefaultsConfig{
			Rooms:       "Lokaal 1, Lokaal 2",
			StartTime:   defaultStartTime,
			EndTime:     defaultEndTime,
			SlotMinutes: defaultSlotMinutes,
			MaxOverlap:  0,
		},
		Clusters:  DefaultClusterMapping(),
		Publish:   PublishConfig{Cron: defaultPublishCron},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Columns.Teacher == "" {
		c.Columns.Teacher = defaultTeacherColumn
	}
	if c.Columns.Group == "" {
		c.Columns.Group = defaultGroupColumn
	}
	if c.Defaults.StartTime == "" {
		c.Defaults.StartTime = defaultStartTime
	}
	if c.Defaults.EndTime == "" {
		c.Defaults.EndTime = defaultEndTime
	}
	if c.Defaults.SlotMinutes <= 0 {
		c.Defaults.SlotMinutes = defaultSlotMinutes
	}
	if c.Defaults.MaxOverlap < 0 {
		c.Defaults.MaxOverlap = 0
	}
	// A nil mapping means the key was absent; an explicitly empty one is kept.
	if c.Clusters == nil {
		c.Clusters = DefaultClusterMapping()
	}
	if c.Publish.Cron == "" {
		c.Publish.Cron = defaultPublishCron
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The parent directory is created (0700), the YAML is written to a temp
// file in the same directory and renamed over path, final perms 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bespreking-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
