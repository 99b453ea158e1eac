package structure

import (
	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/util/sets"
)

// IgnorePredicate decides whether a type or member is excluded from
// generation entirely: no node, no listing, no cross-reference target.
//
// Pure function of (entity, config); no hidden state.
type IgnorePredicate struct {
	graph      *metadata.Graph
	attributes sets.Set[string]
}

// NewIgnorePredicate builds the predicate from the configured ignore-list.
func NewIgnorePredicate(g *metadata.Graph, cfg *config.Config) *IgnorePredicate {
	return &IgnorePredicate{
		graph:      g,
		attributes: sets.New(cfg.Ignore.Attributes...),
	}
}

// Type reports whether a type is skipped.
func (p *IgnorePredicate) Type(t metadata.Type) bool {
	b := t.Common()
	return b.CompilerGenerated || p.anyIgnoredAttribute(b.Attributes)
}

// Member reports whether a member is skipped.
func (p *IgnorePredicate) Member(m *metadata.Member) bool {
	return m.CompilerGenerated || p.anyIgnoredAttribute(m.Attributes)
}

func (p *IgnorePredicate) anyIgnoredAttribute(uids []metadata.UID) bool {
	if len(p.attributes) == 0 {
		return false
	}
	for _, uid := range uids {
		// An unresolved attribute cannot match the ignore-list; the entity
		// stays included.
		attr, ok := p.graph.ResolveAttribute(uid)
		if !ok {
			continue
		}
		if p.attributes.Has(attr.Name) {
			return true
		}
	}
	return false
}
