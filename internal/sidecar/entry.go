// Package sidecar manages the human-authored overlay tree.
//
// Sidecar entries live in a directory tree parallel to, but physically
// separate from, the generated tree, addressed by the same relative paths.
// Generation creates empty skeletons once per UID and never deletes or
// overwrites an existing sidecar file afterwards (the zero-trust principle).
package sidecar

import (
	"sort"

	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/util/sets"
)

// SeeAlsoHeading is the reserved section heading. A section with this
// heading is excluded from normal ordering and always renders last.
const SeeAlsoHeading = "See Also"

// Section is one named block of human-authored markdown.
type Section struct {
	Heading string
	Body    string
	// Order is the explicit order hint; nil means declaration order after
	// all hinted sections.
	Order *int
}

// Ref is one "see also" reference: either a graph UID or an external link.
type Ref struct {
	UID   metadata.UID `yaml:"uid,omitempty"`
	URL   string       `yaml:"url,omitempty"`
	Label string       `yaml:"label,omitempty"`
}

// Key returns the identity used for dedup when unioning see-also lists.
func (r Ref) Key() string {
	if !r.UID.IsZero() {
		return "uid:" + string(r.UID)
	}
	return "url:" + r.URL
}

// Entry is one human-authored overlay document keyed by UID.
type Entry struct {
	UID         metadata.UID
	Description string
	// Intro is body content before the first section heading.
	Intro    string
	Sections []Section
	SeeAlso  []Ref
}

// IsEmpty reports whether the entry carries no human-authored content.
func (e *Entry) IsEmpty() bool {
	return e.Description == "" && e.Intro == "" && len(e.Sections) == 0 && len(e.SeeAlso) == 0
}

// ResolveOrder returns the sections in render order: hinted sections sort
// ascending by hint (stable), unhinted sections keep declaration order after
// all hinted ones, and the reserved "See Also" heading always comes last.
func (e *Entry) ResolveOrder() []Section {
	var hinted, unhinted, seeAlso []Section
	for _, s := range e.Sections {
		switch {
		case s.Heading == SeeAlsoHeading:
			seeAlso = append(seeAlso, s)
		case s.Order != nil:
			hinted = append(hinted, s)
		default:
			unhinted = append(unhinted, s)
		}
	}

	sort.SliceStable(hinted, func(i, j int) bool {
		return *hinted[i].Order < *hinted[j].Order
	})

	out := make([]Section, 0, len(e.Sections))
	out = append(out, hinted...)
	out = append(out, unhinted...)
	out = append(out, seeAlso...)
	return out
}

// Merge combines entries ordered from least to most specific, used to fold
// an inherited member's documentation into its override's.
//
// The result's description is the last non-empty one. Sections with matching
// headings are replaced by the more specific entry; new headings are
// appended. See-also lists are unioned preserving first-seen order, with
// duplicates removed.
func Merge(entries ...*Entry) *Entry {
	merged := &Entry{}
	seenRefs := sets.New[string]()
	sectionIdx := make(map[string]int)

	for _, e := range entries {
		if e == nil {
			continue
		}
		if merged.UID.IsZero() {
			merged.UID = e.UID
		} else if !e.UID.IsZero() {
			merged.UID = e.UID
		}
		if e.Description != "" {
			merged.Description = e.Description
		}
		if e.Intro != "" {
			merged.Intro = e.Intro
		}
		for _, s := range e.Sections {
			if idx, ok := sectionIdx[s.Heading]; ok {
				merged.Sections[idx] = s
				continue
			}
			sectionIdx[s.Heading] = len(merged.Sections)
			merged.Sections = append(merged.Sections, s)
		}
		for _, r := range e.SeeAlso {
			if seenRefs.Has(r.Key()) {
				continue
			}
			seenRefs.Add(r.Key())
			merged.SeeAlso = append(merged.SeeAlso, r)
		}
	}
	return merged
}
