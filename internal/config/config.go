// Package config handles parsing and writing of the taskstodo configuration
// file (~/.config/taskstodo/config.toml).
//
// Every path the stores use comes from here and is passed explicitly to the
// store constructors; no package keeps its own directory constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// ConfigFilename is the configuration file name inside the config directory.
const ConfigFilename = "config.toml"

// Duration is a time.Duration written as a Go duration string ("100ms", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// JSONSchema implements jsonschema.JSONSchemer.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 100ms or 5m",
	}
}

// Calcurse locates the local task record.
type Calcurse struct {
	Dir string `toml:"dir" json:"dir" jsonschema:"description=calcurse data directory holding the todo file and notes/"`
}

// Data locates taskstodo's own state (snapshot, lock, list cache).
type Data struct {
	Dir string `toml:"dir" json:"dir" jsonschema:"description=Directory for the sync snapshot, lock marker and list cache"`
}

// Remote configures the Google Tasks connection.
type Remote struct {
	CredentialsFile string   `toml:"credentials_file" json:"credentials_file" jsonschema:"description=OAuth client credentials downloaded from Google Cloud"`
	TokenFile       string   `toml:"token_file" json:"token_file" jsonschema:"description=Where the OAuth token is cached"`
	CreateWorkers   int      `toml:"create_workers" json:"create_workers" jsonschema:"minimum=1,description=Concurrent task creations; 1 keeps exact order"`
	SubmitDelay     Duration `toml:"submit_delay" json:"submit_delay" jsonschema:"description=Delay between concurrent task creations"`
	Timeout         Duration `toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Deadline for one sync run; 0 disables"`
}

// Log configures the diagnostic log.
type Log struct {
	File       string `toml:"file,omitempty" json:"file,omitempty" jsonschema:"description=Log file path; empty logs to stderr"`
	MaxSizeMB  int    `toml:"max_size_mb,omitempty" json:"max_size_mb,omitempty" jsonschema:"description=Rotate the log file after this many megabytes"`
	MaxBackups int    `toml:"max_backups,omitempty" json:"max_backups,omitempty" jsonschema:"description=Rotated log files to keep"`
}

// Watch configures sync --watch.
type Watch struct {
	Interval Duration `toml:"interval" json:"interval" jsonschema:"description=Periodic sync interval in watch mode"`
	Debounce Duration `toml:"debounce" json:"debounce" jsonschema:"description=Quiet period after a todo file change before syncing"`
}

// Config is the taskstodo configuration.
type Config struct {
	Calcurse Calcurse `toml:"calcurse" json:"calcurse"`
	Data     Data     `toml:"data" json:"data"`
	Remote   Remote   `toml:"remote" json:"remote"`
	Log      Log      `toml:"log,omitempty" json:"log,omitempty"`
	Watch    Watch    `toml:"watch" json:"watch"`
}

// DefaultConfig returns a Config with the default locations.
func DefaultConfig() Config {
	return Config{
		Calcurse: Calcurse{Dir: "~/.local/share/calcurse"},
		Data:     Data{Dir: "~/.local/share/taskstodo"},
		Remote: Remote{
			CredentialsFile: "~/.config/taskstodo/credentials.json",
			TokenFile:       "~/.config/taskstodo/token.json",
			CreateWorkers:   1,
			SubmitDelay:     Duration{100 * time.Millisecond},
		},
		Log: Log{MaxSizeMB: 10, MaxBackups: 3},
		Watch: Watch{
			Interval: Duration{5 * time.Minute},
			Debounce: Duration{2 * time.Second},
		},
	}
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	return "~/.config/taskstodo"
}

// DefaultPath returns the default configuration file path, unexpanded.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), ConfigFilename)
}

// LoadConfig reads the configuration file at path on top of DefaultConfig.
// A missing file yields the defaults. Paths are returned with ~ expanded.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fs, ExpandHome(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.expand()
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Calcurse.Dir == "" {
		return fmt.Errorf("calcurse.dir must not be empty")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	if c.Remote.CreateWorkers < 1 {
		return fmt.Errorf("remote.create_workers must be at least 1, got %d", c.Remote.CreateWorkers)
	}
	if c.Remote.SubmitDelay.Duration < 0 || c.Remote.Timeout.Duration < 0 {
		return fmt.Errorf("remote durations must not be negative")
	}
	if c.Watch.Interval.Duration < 0 || c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("watch durations must not be negative")
	}
	return nil
}

func (c *Config) expand() {
	c.Calcurse.Dir = ExpandHome(c.Calcurse.Dir)
	c.Data.Dir = ExpandHome(c.Data.Dir)
	c.Remote.CredentialsFile = ExpandHome(c.Remote.CredentialsFile)
	c.Remote.TokenFile = ExpandHome(c.Remote.TokenFile)
	c.Log.File = ExpandHome(c.Log.File)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// SchemaComment is the TOML comment that references the JSON Schema for editor autocomplete.
const SchemaComment = "#:schema https://raw.githubusercontent.com/bolasblack/taskstodo/refs/heads/master/taskstodo-config.schema.json\n\n"
