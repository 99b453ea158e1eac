package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

// Validate checks required settings before any write happens. A failed
// validation is always fatal.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Metadata) == "" {
		return errors.NewConfigError("metadata: path to the metadata graph artifact is required")
	}
	if strings.TrimSpace(c.Version) == "" {
		return errors.NewConfigError("version: the version tag being generated is required")
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		return errors.NewConfigError("output.directory must not be empty")
	}
	if strings.TrimSpace(c.Sidecar.Directory) == "" {
		return errors.NewConfigError("sidecar.directory must not be empty")
	}

	// The generator must never write into the sidecar subtree; overlapping
	// roots would make that unenforceable.
	out, err := filepath.Abs(c.Output.Directory)
	if err != nil {
		return errors.WrapConfigError(err, "resolve output.directory")
	}
	side, err := filepath.Abs(c.Sidecar.Directory)
	if err != nil {
		return errors.WrapConfigError(err, "resolve sidecar.directory")
	}
	if out == side || isSubPath(out, side) || isSubPath(side, out) {
		return errors.NewConfigError("output.directory and sidecar.directory must not overlap")
	}

	for _, attr := range c.Ignore.Attributes {
		if strings.TrimSpace(attr) == "" {
			return errors.NewConfigError("ignore.attributes entries must not be empty")
		}
	}
	return nil
}

func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
