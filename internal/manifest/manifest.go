// Package manifest records what went into and came out of a generation run,
// so identical inputs can be recognized and runs can be audited later.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/refdocs/internal/report"
)

// FileName is the manifest file written next to each version's tree.
const FileName = "manifest.json"

// GenerationManifest is a complete record of one run's inputs and outputs.
type GenerationManifest struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures the content hashes of everything that determines the
// generated tree.
type Inputs struct {
	GraphHash  string `json:"graph_hash"`
	ConfigHash string `json:"config_hash"`
}

// Outputs captures the result counters of the run.
type Outputs struct {
	Pages     int                `json:"pages"`
	Skeletons int                `json:"skeletons"`
	Shells    int                `json:"shells,omitempty"`
	Warnings  int                `json:"warnings"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// New builds a manifest for a finished run.
func New(version, graphHash, configHash string, rep *report.Report) *GenerationManifest {
	return &GenerationManifest{
		ID:        uuid.NewString(),
		Version:   version,
		Timestamp: rep.Start.UTC(),
		Inputs:    Inputs{GraphHash: graphHash, ConfigHash: configHash},
		Outputs: Outputs{
			Pages:     rep.PagesGenerated,
			Skeletons: rep.SkeletonsWritten,
			Shells:    rep.ShellsConverted,
			Warnings:  rep.WarningCount(),
		},
		Status:   string(rep.Outcome()),
		Duration: rep.End.Sub(rep.Start).Milliseconds(),
	}
}

// ToJSON serializes the manifest to indented JSON.
func (m *GenerationManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*GenerationManifest, error) {
	var m GenerationManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash over the manifest's inputs. Two runs
// with equal input hashes produce byte-identical trees, so this value
// identifies a generation result.
func (m *GenerationManifest) Hash() (string, error) {
	hashInput := struct {
		Version    string `json:"version"`
		GraphHash  string `json:"graph_hash"`
		ConfigHash string `json:"config_hash"`
	}{
		Version:    m.Version,
		GraphHash:  m.Inputs.GraphHash,
		ConfigHash: m.Inputs.ConfigHash,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Write stores the manifest under the version's qualified tree.
func (m *GenerationManifest) Write(versionRoot string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(versionRoot, FileName)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// Load reads a manifest from a version's qualified tree. A missing file
// yields (nil, nil).
func Load(versionRoot string) (*GenerationManifest, error) {
	path := filepath.Join(versionRoot, FileName)
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return FromJSON(data)
}
