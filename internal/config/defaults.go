package config

const (
	// DefaultGlobalNamespace is the display name for the implicit global
	// namespace when none is configured.
	DefaultGlobalNamespace = "Global"

	defaultOutputDirectory  = "./docs"
	defaultSidecarDirectory = "./sidecars"
)

func (c *Config) applyDefaults() {
	if c.Output.Directory == "" {
		c.Output.Directory = defaultOutputDirectory
	}
	if c.Sidecar.Directory == "" {
		c.Sidecar.Directory = defaultSidecarDirectory
	}
	if c.GlobalNamespace == "" {
		c.GlobalNamespace = DefaultGlobalNamespace
	}
}
