// Package versioning tracks the documented versions of a codebase and
// converts superseded trees into shell pages backed by the archive store.
package versioning

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

// StateFile is the name of the version registry at the output root.
const StateFile = "versions.yaml"

// Version is one registry entry. Exactly one entry is current at any time.
type Version struct {
	Tag         string    `yaml:"tag"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Current     bool      `yaml:"current"`
}

// State is the on-disk version registry.
type State struct {
	Versions []Version `yaml:"versions"`
}

// LoadState reads versions.yaml from the output root. A missing file yields
// an empty state.
func LoadState(outputRoot string) (*State, error) {
	path := filepath.Join(outputRoot, StateFile)
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, errors.WrapFileSystemError(err, "read version registry").
			WithContext("path", path)
	}
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapConfigError(err, "parse version registry").
			WithContext("path", path)
	}
	return &s, nil
}

// Save writes the registry back, entries sorted by tag for stable diffs.
func (s *State) Save(outputRoot string) error {
	sort.Slice(s.Versions, func(i, j int) bool {
		return s.Versions[i].Tag < s.Versions[j].Tag
	})
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "marshal version registry")
	}
	path := filepath.Join(outputRoot, StateFile)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return errors.WrapFileSystemError(err, "write version registry").
			WithContext("path", path)
	}
	return nil
}

// Current returns the current entry, or nil when the registry is empty.
func (s *State) Current() *Version {
	for i := range s.Versions {
		if s.Versions[i].Current {
			return &s.Versions[i]
		}
	}
	return nil
}

// Find returns the entry for a tag, or nil.
func (s *State) Find(tag string) *Version {
	for i := range s.Versions {
		if s.Versions[i].Tag == tag {
			return &s.Versions[i]
		}
	}
	return nil
}

// SetCurrent registers tag (adding it if new) and makes it the single
// current version. The previous current becomes historical; it is never
// re-promoted back to current through this registry.
func (s *State) SetCurrent(tag string, now time.Time) {
	found := false
	for i := range s.Versions {
		if s.Versions[i].Tag == tag {
			s.Versions[i].Current = true
			s.Versions[i].GeneratedAt = now
			found = true
		} else {
			s.Versions[i].Current = false
		}
	}
	if !found {
		s.Versions = append(s.Versions, Version{Tag: tag, GeneratedAt: now, Current: true})
	}
}

// Historical returns the tags of all non-current entries, sorted.
func (s *State) Historical() []string {
	var tags []string
	for _, v := range s.Versions {
		if !v.Current {
			tags = append(tags, v.Tag)
		}
	}
	sort.Strings(tags)
	return tags
}
