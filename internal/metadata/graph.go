package metadata

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/refdocs/internal/errors"
	"git.home.luguber.info/inful/refdocs/internal/util/sets"
)

// Graph is the identifier-indexed metadata graph for one extracted version.
// It is immutable input for a generation run.
type Graph struct {
	// Generation metadata from the extractor.
	SchemaVersion int       `json:"schema"`
	Tool          string    `json:"tool,omitempty"`
	GeneratedAt   time.Time `json:"generated_at,omitempty"`
	Version       string    `json:"version,omitempty"`

	namespaces    map[UID]*Namespace
	types         map[UID]Type
	members       map[UID]*Member
	attributes    map[UID]*Attribute
	genericParams map[UID]*GenericParameter
	assemblies    map[UID]*Assembly
}

// NewGraph creates an empty graph. Entities are attached with the Add
// helpers; Seal must be called before the graph is queried so the implicit
// global namespace is wired up.
func NewGraph() *Graph {
	return &Graph{
		namespaces:    make(map[UID]*Namespace),
		types:         make(map[UID]Type),
		members:       make(map[UID]*Member),
		attributes:    make(map[UID]*Attribute),
		genericParams: make(map[UID]*GenericParameter),
		assemblies:    make(map[UID]*Assembly),
	}
}

// AddNamespace registers a namespace.
func (g *Graph) AddNamespace(n *Namespace) { g.namespaces[n.UID] = n }

// AddType registers a type.
func (g *Graph) AddType(t Type) { g.types[t.Common().UID] = t }

// AddMember registers a member.
func (g *Graph) AddMember(m *Member) { g.members[m.UID] = m }

// AddAttribute registers an attribute.
func (g *Graph) AddAttribute(a *Attribute) { g.attributes[a.UID] = a }

// AddGenericParameter registers a generic parameter.
func (g *Graph) AddGenericParameter(p *GenericParameter) { g.genericParams[p.UID] = p }

// AddAssembly registers an assembly.
func (g *Graph) AddAssembly(a *Assembly) { g.assemblies[a.UID] = a }

// Seal materializes the implicit global namespace: parentless namespaces
// become its children and namespace-less non-nested types become its types.
// Idempotent.
func (g *Graph) Seal() {
	global, ok := g.namespaces[GlobalNamespaceUID]
	if !ok {
		global = &Namespace{UID: GlobalNamespaceUID}
		g.namespaces[GlobalNamespaceUID] = global
	}

	children := sets.New[string]()
	for _, c := range global.Children {
		children.Add(string(c))
	}
	for uid, ns := range g.namespaces {
		if uid == GlobalNamespaceUID {
			continue
		}
		if ns.Parent.IsZero() {
			ns.Parent = GlobalNamespaceUID
		}
		if ns.Parent == GlobalNamespaceUID && !children.Has(string(uid)) {
			children.Add(string(uid))
		}
	}

	globalTypes := sets.New[string]()
	for _, t := range global.Types {
		globalTypes.Add(string(t))
	}
	for uid, t := range g.types {
		b := t.Common()
		if b.Namespace.IsZero() && b.Enclosing.IsZero() {
			b.Namespace = GlobalNamespaceUID
			globalTypes.Add(string(uid))
		}
	}

	global.Children = toUIDs(sets.SortedStrings(children))
	global.Types = toUIDs(sets.SortedStrings(globalTypes))
}

func toUIDs(ss []string) []UID {
	out := make([]UID, len(ss))
	for i, s := range ss {
		out[i] = UID(s)
	}
	return out
}

// Resolve looks up any entity by UID through one dispatch surface.
//
// Resolution failure is a normal outcome, not an error: the second return
// value is false and callers must handle it (placeholder, diagnostic,
// continue). Resolve never panics and never returns a wrong entity.
func (g *Graph) Resolve(uid UID) (Entity, bool) {
	switch uid.Kind() {
	case KindNamespace:
		if n, ok := g.namespaces[uid]; ok {
			return n, true
		}
	case KindType:
		if t, ok := g.types[uid]; ok {
			return t, true
		}
	case KindMember:
		if m, ok := g.members[uid]; ok {
			return m, true
		}
	case KindAttribute:
		if a, ok := g.attributes[uid]; ok {
			return a, true
		}
	case KindGenericParam:
		if p, ok := g.genericParams[uid]; ok {
			return p, true
		}
	case KindAssembly:
		if a, ok := g.assemblies[uid]; ok {
			return a, true
		}
	}
	return nil, false
}

// ResolveNamespace resolves a namespace UID.
func (g *Graph) ResolveNamespace(uid UID) (*Namespace, bool) {
	n, ok := g.namespaces[uid]
	return n, ok
}

// ResolveType resolves a type UID.
func (g *Graph) ResolveType(uid UID) (Type, bool) {
	t, ok := g.types[uid]
	return t, ok
}

// ResolveMember resolves a member UID.
func (g *Graph) ResolveMember(uid UID) (*Member, bool) {
	m, ok := g.members[uid]
	return m, ok
}

// ResolveAttribute resolves an attribute UID.
func (g *Graph) ResolveAttribute(uid UID) (*Attribute, bool) {
	a, ok := g.attributes[uid]
	return a, ok
}

// Global returns the implicit global namespace. Seal must have run.
func (g *Graph) Global() *Namespace {
	return g.namespaces[GlobalNamespaceUID]
}

// NamespaceCount returns the number of namespaces excluding the global one.
func (g *Graph) NamespaceCount() int {
	n := len(g.namespaces)
	if _, ok := g.namespaces[GlobalNamespaceUID]; ok {
		n--
	}
	return n
}

// TypeCount returns the number of declared types.
func (g *Graph) TypeCount() int { return len(g.types) }

// MemberCount returns the number of declared members.
func (g *Graph) MemberCount() int { return len(g.members) }

// MemberGroups is a type's members grouped by kind, each group in metadata
// declaration order. Unresolved holds member UIDs that did not resolve.
type MemberGroups struct {
	Constructors      []*Member
	StaticConstructor *Member
	Methods           []*Member
	Properties        []*Member
	Fields            []*Member
	Events            []*Member
	EnumValues        []*Member
	Operators         []*Member
	Conversions       []*Member
	Unresolved        []UID
}

// GroupMembers groups a type's members by kind, skipping unresolved UIDs.
func (g *Graph) GroupMembers(t Type) MemberGroups {
	var groups MemberGroups
	for _, uid := range t.Common().Members {
		m, ok := g.members[uid]
		if !ok {
			groups.Unresolved = append(groups.Unresolved, uid)
			continue
		}
		switch m.Kind {
		case MemberConstructor:
			groups.Constructors = append(groups.Constructors, m)
		case MemberStaticConstructor:
			groups.StaticConstructor = m
		case MemberMethod:
			groups.Methods = append(groups.Methods, m)
		case MemberProperty:
			groups.Properties = append(groups.Properties, m)
		case MemberField:
			groups.Fields = append(groups.Fields, m)
		case MemberEvent:
			groups.Events = append(groups.Events, m)
		case MemberEnumValue:
			groups.EnumValues = append(groups.EnumValues, m)
		case MemberOperator:
			groups.Operators = append(groups.Operators, m)
		case MemberConversion:
			groups.Conversions = append(groups.Conversions, m)
		}
	}
	return groups
}

// MethodGroup aggregates all overloads of one method name into a single
// addressable unit.
type MethodGroup struct {
	Name      string
	Overloads []*Member
}

// GroupMethodsByName aggregates methods into overload groups, sorted by name.
// Overload order within a group is declaration order.
func GroupMethodsByName(methods []*Member) []MethodGroup {
	byName := make(map[string][]*Member)
	names := make([]string, 0)
	for _, m := range methods {
		if _, seen := byName[m.Name]; !seen {
			names = append(names, m.Name)
		}
		byName[m.Name] = append(byName[m.Name], m)
	}
	sort.Strings(names)

	groups := make([]MethodGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, MethodGroup{Name: name, Overloads: byName[name]})
	}
	return groups
}

// AncestorChain returns the namespace's ancestors up to (excluding) the
// global namespace, nearest first. A parent cycle yields a schema error so
// traversal never recurses unboundedly.
func (g *Graph) AncestorChain(ns *Namespace) ([]*Namespace, error) {
	var chain []*Namespace
	visited := sets.New(string(ns.UID))

	cur := ns
	for !cur.Parent.IsZero() && cur.Parent != GlobalNamespaceUID {
		parent, ok := g.namespaces[cur.Parent]
		if !ok {
			// Dangling parent edge: treat as a root.
			break
		}
		if visited.Has(string(parent.UID)) {
			return nil, errors.NewSchemaError("namespace parent cycle").
				WithContext("uid", string(parent.UID))
		}
		visited.Add(string(parent.UID))
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

// Validate checks basic structural guarantees of the graph: no namespace
// parent cycles. It returns one error per offending branch.
func (g *Graph) Validate() []error {
	var errs []error
	uids := make([]string, 0, len(g.namespaces))
	for uid := range g.namespaces {
		uids = append(uids, string(uid))
	}
	sort.Strings(uids)
	for _, uid := range uids {
		if _, err := g.AncestorChain(g.namespaces[UID(uid)]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
