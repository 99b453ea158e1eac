// Package config loads and validates the refdocs generation configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

// Config is the full generation configuration for one run.
type Config struct {
	// Metadata is the path to the metadata graph artifact (JSON).
	Metadata string `yaml:"metadata"`

	Output  OutputConfig  `yaml:"output"`
	Sidecar SidecarConfig `yaml:"sidecar"`
	Ignore  IgnoreConfig  `yaml:"ignore"`

	// GlobalNamespace is the display name used for the implicit global
	// namespace when it owns types.
	GlobalNamespace string `yaml:"global_namespace,omitempty"`

	// Version is the version tag being generated (e.g. "1.1.0").
	Version string `yaml:"version"`

	History HistoryConfig `yaml:"history"`
}

// OutputConfig controls the generated documentation tree.
type OutputConfig struct {
	// Directory is the output root of the generated tree.
	Directory string `yaml:"directory"`
}

// SidecarConfig controls the human-authored overlay tree.
type SidecarConfig struct {
	// Directory is the sidecar root, parallel to but physically separate
	// from the generated tree.
	Directory string `yaml:"directory"`

	// EmitSkeletons controls whether empty skeleton entries are written for
	// UIDs that have no sidecar yet.
	EmitSkeletons bool `yaml:"emit_skeletons"`
}

// IgnoreConfig is the ignore policy for generation.
type IgnoreConfig struct {
	// Attributes lists attribute names whose presence excludes a type or
	// member from generation entirely.
	Attributes []string `yaml:"attributes,omitempty"`
}

// HistoryConfig controls the run-history store.
type HistoryConfig struct {
	// Database is the sqlite file recording generation runs. Empty disables
	// history recording.
	Database string `yaml:"database,omitempty"`
}

// Load reads configuration from a YAML file. A .env file next to the
// working directory is applied first (without overriding the process
// environment), and ${VAR} references inside the YAML are expanded.
func Load(path string) (*Config, error) {
	// Missing .env is fine; only surface real parse failures.
	if _, statErr := os.Stat(".env"); statErr == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.WrapConfigError(err, "load .env")
		}
	}

	// #nosec G304 - path is the user-supplied config flag
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(fmt.Sprintf("configuration file not found: %s", path))
		}
		return nil, errors.WrapConfigError(err, "read config file")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapConfigError(err, "unmarshal config")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
