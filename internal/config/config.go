// Package config loads the parcel-query configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imbrian/parcel/internal/logging"
	"github.com/imbrian/parcel/internal/modulematch"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".parcel-query.yaml"

// Config holds the settings shared by every command.
type Config struct {
	CacheDir     string                   `yaml:"cache_dir"`
	ProjectRoot  string                   `yaml:"project_root"`
	VendorMarker string                   `yaml:"vendor_marker"`
	HistoryFile  string                   `yaml:"history_file"`
	Log          LogConfig                `yaml:"log"`
	Modules      []modulematch.ModuleRule `yaml:"modules"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		CacheDir:     ".parcel-cache",
		VendorMarker: "node_modules",
		HistoryFile:  "~/.parcel_query_history",
		Log:          LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// Load reads the file at path over the defaults. A missing file is not an
// error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later, mid-query.
func (c Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is empty")
	}
	if c.VendorMarker == "" {
		return fmt.Errorf("vendor_marker is empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return c.Matcher().Validate()
}

// Matcher returns a module matcher over the configured rules.
func (c Config) Matcher() *modulematch.Matcher {
	return modulematch.NewMatcher(c.Modules)
}

// HistoryPath returns the history file path with a leading ~ expanded. It
// returns "" when history is disabled or the home directory is unknown.
func (c Config) HistoryPath() string {
	p := c.HistoryFile
	if p == "" || (p != "~" && !strings.HasPrefix(p, "~/")) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
