package main

import (
	"fmt"
	"os"
)

const starterConfig = `# refdocs configuration
metadata: ./metadata.json

output:
  directory: ./docs

sidecar:
  directory: ./sidecars
  emit_skeletons: true

ignore:
  attributes:
    - HideFromDocs

# Display name for types declared outside any namespace.
global_namespace: Global

version: "1.0.0"

history:
  database: ./refdocs-history.db
`

func runInit(cfgPath string, force bool) error {
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(starterConfig), 0o640); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	fmt.Printf("wrote %s\n", cfgPath)
	return nil
}
