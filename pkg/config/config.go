package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-lessons/pkg/cleanup"
	"github.com/nsxbet/sql-lessons/pkg/engine"
)

// DatabaseURLEnv names the environment variable consulted when no database
// target is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Output formats accepted by the report commands.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config represents the tool configuration.
type Config struct {
	Database    string        `yaml:"database"     json:"database"     mapstructure:"database"`
	ExamplesDir string        `yaml:"examples_dir" json:"examples_dir" mapstructure:"examples_dir"`
	Output      string        `yaml:"output"       json:"output"       mapstructure:"output"`
	Session     SessionConfig `yaml:"session"      json:"session"      mapstructure:"session"`
	Cleanup     CleanupConfig `yaml:"cleanup"      json:"cleanup"      mapstructure:"cleanup"`
}

// SessionConfig tunes the engine session.
type SessionConfig struct {
	// Init statements run once after connecting, e.g. PRAGMAs or extension loads.
	Init      []string `yaml:"init"       json:"init"       mapstructure:"init"`
	RowBuffer int      `yaml:"row_buffer" json:"row_buffer" mapstructure:"row_buffer"`
}

// CleanupConfig names the cleanup queue.
type CleanupConfig struct {
	Table  string `yaml:"table"  json:"table"  mapstructure:"table"`
	Column string `yaml:"column" json:"column" mapstructure:"column"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database:    "",
		ExamplesDir: "examples",
		Output:      OutputText,
		Session: SessionConfig{
			RowBuffer: engine.DefaultRowBuffer,
		},
		Cleanup: CleanupConfig{
			Table:  cleanup.DefaultTable,
			Column: cleanup.DefaultColumn,
		},
	}
}

// LoadFromFile loads configuration from a file. Keys the file does not set keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("Loading config from file", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", filename)
	}

	cfg := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Debug("YAML unmarshal failed", "error", err)
		cfg = DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", filename)
		}
	}
	return cfg, nil
}

// SetDefaults registers every key with its default value so that viper
// resolves environment overrides for all of them.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("database", d.Database)
	v.SetDefault("examples_dir", d.ExamplesDir)
	v.SetDefault("output", d.Output)
	v.SetDefault("session.init", d.Session.Init)
	v.SetDefault("session.row_buffer", d.Session.RowBuffer)
	v.SetDefault("cleanup.table", d.Cleanup.Table)
	v.SetDefault("cleanup.column", d.Cleanup.Column)
}

// FromViper builds the configuration from flags, config file and environment
// as resolved by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	return cfg, nil
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return errors.Wrapf(err, "failed to load %s", name)
		}
		slog.Debug("Loaded environment file", "file", name)
	}
	return nil
}

// DatabaseTarget returns the configured database, then DATABASE_URL, then the
// in-memory target.
func (c *Config) DatabaseTarget() string {
	if c.Database != "" {
		return c.Database
	}
	if env := os.Getenv(DatabaseURLEnv); env != "" {
		return env
	}
	return engine.MemoryTarget
}

// SessionOptions converts the session settings into engine options.
func (c *Config) SessionOptions() []engine.Option {
	opts := []engine.Option{engine.WithRowBuffer(c.Session.RowBuffer)}
	if len(c.Session.Init) > 0 {
		opts = append(opts, engine.WithInitStatements(c.Session.Init...))
	}
	return opts
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		result = multierror.Append(result, errors.Errorf("unsupported output format: %s", c.Output))
	}
	if c.ExamplesDir == "" {
		result = multierror.Append(result, errors.New("examples_dir must not be empty"))
	}
	if c.Session.RowBuffer < 1 {
		result = multierror.Append(result, errors.Errorf("session.row_buffer must be positive, got %d", c.Session.RowBuffer))
	}
	if c.Cleanup.Table == "" || c.Cleanup.Column == "" {
		result = multierror.Append(result, errors.New("cleanup.table and cleanup.column must be set"))
	}
	return result.ErrorOrNil()
}
