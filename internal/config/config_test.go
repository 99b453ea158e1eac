package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestLoadCompleteConfig(t *testing.T) {
	path := writeConfig(t, `
metadata: ./graph.json
version: "1.0.0"
output:
  directory: ./docs
sidecar:
  directory: ./sidecars
  emit_skeletons: true
ignore:
  attributes:
    - CompilerGeneratedAttribute
history:
  database: ./runs.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./graph.json", cfg.Metadata)
	require.Equal(t, "1.0.0", cfg.Version)
	require.True(t, cfg.Sidecar.EmitSkeletons)
	require.Equal(t, []string{"CompilerGeneratedAttribute"}, cfg.Ignore.Attributes)
	require.Equal(t, "./runs.db", cfg.History.Database)
	require.Equal(t, DefaultGlobalNamespace, cfg.GlobalNamespace)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "metadata: ./graph.json\nversion: \"1.0.0\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultOutputDirectory, cfg.Output.Directory)
	require.Equal(t, defaultSidecarDirectory, cfg.Sidecar.Directory)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("REFDOCS_OUT", "/tmp/refdocs-out")
	path := writeConfig(t, `
metadata: ./graph.json
version: "1.0.0"
output:
  directory: ${REFDOCS_OUT}
sidecar:
  directory: ./sidecars
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/refdocs-out", cfg.Output.Directory)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.Equal(t, errors.ExitConfig, errors.ExitCode(err))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "metadata: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestValidateRequiredFields(t *testing.T) {
	base := func() *Config {
		return &Config{
			Metadata: "./graph.json",
			Version:  "1.0.0",
			Output:   OutputConfig{Directory: "./docs"},
			Sidecar:  SidecarConfig{Directory: "./sidecars"},
		}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"metadata":          func(c *Config) { c.Metadata = " " },
		"version":           func(c *Config) { c.Version = "" },
		"output directory":  func(c *Config) { c.Output.Directory = "" },
		"sidecar directory": func(c *Config) { c.Sidecar.Directory = "" },
		"empty ignore attr": func(c *Config) { c.Ignore.Attributes = []string{"Good", " "} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, errors.IsCategory(err, errors.CategoryConfig))
		})
	}
}

func TestValidateRejectsOverlappingRoots(t *testing.T) {
	cfg := &Config{
		Metadata: "./graph.json",
		Version:  "1.0.0",
		Output:   OutputConfig{Directory: "./docs"},
		Sidecar:  SidecarConfig{Directory: "./docs/sidecars"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not overlap")

	cfg.Sidecar.Directory = "./docs"
	require.Error(t, cfg.Validate())

	cfg.Sidecar.Directory = "./sidecars"
	require.NoError(t, cfg.Validate())
}
