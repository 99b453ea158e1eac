package structure

import (
	"fmt"
	"path"
	"sort"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/util/sets"
)

// Fixed folder and file names of the generated tree. This layout is a
// compatibility contract: editing affordances and historical-version
// indirection depend on a 1:1 path correspondence between the generated tree
// and the sidecar tree.
const (
	IndexFile = "_index.md"

	FolderTypes        = "Types"
	FolderNamespaces   = "Namespaces"
	FolderConstructors = "Constructors"
	FolderMethods      = "Methods"
	FolderProperties   = "Properties"
	FolderFields       = "Fields"
	FolderEvents       = "Events"
	FolderNestedTypes  = "Nested-Types"

	FileConstructor       = "Constructor.md"
	FileStaticConstructor = "Static-Constructor.md"
)

// NodeKind identifies what one generated node documents.
type NodeKind string

const (
	NodeNamespaceIndex    NodeKind = "namespace-index"
	NodeTypeIndex         NodeKind = "type-index"
	NodeDelegate          NodeKind = "delegate"
	NodeConstructor       NodeKind = "constructor"
	NodeStaticConstructor NodeKind = "static-constructor"
	NodeMethodGroup       NodeKind = "method-group"
	NodeProperty          NodeKind = "property"
	NodeField             NodeKind = "field"
	NodeEvent             NodeKind = "event"
	NodeEnumValue         NodeKind = "enum-value"
)

// Node is one addressable path of the generated tree. Nodes are derived
// entirely from the metadata graph and never persisted as independent state.
type Node struct {
	// Path is the slash-separated file path relative to the output root.
	Path string
	Kind NodeKind
	// UID is the primary addressed entity.
	UID metadata.UID
	// UIDs lists every entity the node addresses; method-group nodes carry
	// all overloads of the name.
	UIDs  []metadata.UID
	Title string
}

// Plan is the ordered node list of one generation pass. Order is strictly
// top-down: a node's parent directory is created by an earlier node.
type Plan struct {
	Nodes []Node

	// Ignored counts types and members excluded by the ignore policy.
	Ignored int

	byUID map[metadata.UID]int
}

// NodeFor returns the node addressing a UID, if any. Ignored and unresolved
// entities have no node.
func (p *Plan) NodeFor(uid metadata.UID) (Node, bool) {
	idx, ok := p.byUID[uid]
	if !ok {
		return Node{}, false
	}
	return p.Nodes[idx], true
}

// Addresses reports whether a UID has a generated node.
func (p *Plan) Addresses(uid metadata.UID) bool {
	_, ok := p.byUID[uid]
	return ok
}

// BuildPlan maps the metadata graph into the documentation tree plan.
//
// Pure with respect to its inputs: identical (graph, config) produce an
// identical plan. Non-fatal issues (unresolved UIDs, skipped branches) are
// recorded on rep and generation continues.
func BuildPlan(g *metadata.Graph, cfg *config.Config, rep *report.Report) *Plan {
	b := &planBuilder{
		graph:        g,
		cfg:          cfg,
		rep:          rep,
		ignore:       NewIgnorePredicate(g, cfg),
		plan:         &Plan{byUID: make(map[metadata.UID]int)},
		used:         make(map[string]sets.Set[string]),
		visited:      sets.New[string](),
		visitedTypes: sets.New[string](),
	}

	global := g.Global()
	if global != nil {
		// The global namespace becomes a folder only if it owns at least one
		// non-nested, non-ignored type.
		if types := b.namespaceTypes(global); len(types) > 0 {
			dir := b.uniqueName("", Sanitize(cfg.GlobalNamespace))
			b.addNamespaceFolder(global, dir, cfg.GlobalNamespace, types, nil)
		}

		for _, child := range b.childNamespaces(global) {
			b.addNamespace(child, "")
		}
	}

	return b.plan
}

type planBuilder struct {
	graph        *metadata.Graph
	cfg          *config.Config
	rep          *report.Report
	ignore       *IgnorePredicate
	plan         *Plan
	used         map[string]sets.Set[string] // dir -> taken names (lowercased)
	visited      sets.Set[string]            // namespace cycle guard
	visitedTypes sets.Set[string]            // nested-type cycle guard
}

func (b *planBuilder) add(n Node) {
	if len(n.UIDs) == 0 && !n.UID.IsZero() {
		n.UIDs = []metadata.UID{n.UID}
	}
	idx := len(b.plan.Nodes)
	b.plan.Nodes = append(b.plan.Nodes, n)
	for _, uid := range n.UIDs {
		if _, taken := b.plan.byUID[uid]; !taken {
			b.plan.byUID[uid] = idx
		}
	}
}

// uniqueName reserves a name within dir, appending a numeric suffix on
// sanitization collisions so two distinct entities never share a path.
func (b *planBuilder) uniqueName(dir, base string) string {
	taken, ok := b.used[dir]
	if !ok {
		taken = sets.New[string]()
		b.used[dir] = taken
	}
	name := base
	for i := 2; taken.Has(name); i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	taken.Add(name)
	return name
}

// childNamespaces resolves and sorts a namespace's children, skipping
// unresolved UIDs with a diagnostic.
func (b *planBuilder) childNamespaces(ns *metadata.Namespace) []*metadata.Namespace {
	out := make([]*metadata.Namespace, 0, len(ns.Children))
	for _, uid := range ns.Children {
		child, ok := b.graph.ResolveNamespace(uid)
		if !ok {
			b.rep.Warnf(string(uid), "", "child namespace does not resolve; skipped")
			continue
		}
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UID < out[j].UID
	})
	return out
}

// namespaceTypes resolves a namespace's non-nested, non-ignored types in
// deterministic order.
func (b *planBuilder) namespaceTypes(ns *metadata.Namespace) []metadata.Type {
	out := make([]metadata.Type, 0, len(ns.Types))
	for _, uid := range ns.Types {
		t, ok := b.graph.ResolveType(uid)
		if !ok {
			b.rep.Warnf(string(uid), "", "declared type does not resolve; skipped")
			continue
		}
		if !t.Common().Enclosing.IsZero() {
			continue
		}
		if b.ignore.Type(t) {
			b.plan.Ignored++
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Common().Name != out[j].Common().Name {
			return out[i].Common().Name < out[j].Common().Name
		}
		return out[i].Common().UID < out[j].Common().UID
	})
	return out
}

func (b *planBuilder) addNamespace(ns *metadata.Namespace, parentDir string) {
	if b.visited.Has(string(ns.UID)) {
		b.rep.Warnf(string(ns.UID), "", "namespace cycle detected; branch skipped")
		return
	}
	b.visited.Add(string(ns.UID))

	dir := path.Join(parentDir, b.uniqueName(parentDir, Sanitize(ns.Name)))
	b.addNamespaceFolder(ns, dir, ns.Name, b.namespaceTypes(ns), b.childNamespaces(ns))
}

func (b *planBuilder) addNamespaceFolder(ns *metadata.Namespace, dir, title string, types []metadata.Type, children []*metadata.Namespace) {
	b.add(Node{
		Path:  path.Join(dir, IndexFile),
		Kind:  NodeNamespaceIndex,
		UID:   ns.UID,
		Title: title,
	})

	if len(types) > 0 {
		typesDir := path.Join(dir, FolderTypes)
		for _, t := range types {
			b.addType(t, typesDir)
		}
	}

	if len(children) > 0 {
		nsDir := path.Join(dir, FolderNamespaces)
		for _, child := range children {
			b.addNamespace(child, nsDir)
		}
	}
}

func (b *planBuilder) addType(t metadata.Type, parentDir string) {
	base := t.Common()
	if b.visitedTypes.Has(string(base.UID)) {
		b.rep.Warnf(string(base.UID), "", "nested-type cycle detected; branch skipped")
		return
	}
	b.visitedTypes.Add(string(base.UID))

	name := Sanitize(base.Name)

	switch tt := t.(type) {
	case *metadata.Delegate:
		// Delegates produce a single file, no folder.
		file := b.uniqueName(parentDir, name) + ".md"
		b.add(Node{
			Path:  path.Join(parentDir, file),
			Kind:  NodeDelegate,
			UID:   base.UID,
			Title: base.Name,
		})
	case *metadata.Enum:
		dir := path.Join(parentDir, b.uniqueName(parentDir, name))
		b.add(Node{
			Path:  path.Join(dir, IndexFile),
			Kind:  NodeTypeIndex,
			UID:   base.UID,
			Title: base.Name,
		})
		groups := b.groupMembers(t)
		fieldsDir := path.Join(dir, FolderFields)
		for _, v := range groups.EnumValues {
			file := b.uniqueName(fieldsDir, Sanitize(v.Name)) + ".md"
			b.add(Node{
				Path:  path.Join(fieldsDir, file),
				Kind:  NodeEnumValue,
				UID:   v.UID,
				Title: v.Name,
			})
		}
	case *metadata.Class, *metadata.Struct, *metadata.Interface:
		isStaticClass := false
		if c, ok := tt.(*metadata.Class); ok {
			isStaticClass = c.Static
		}
		b.addCompositeType(t, parentDir, name, isStaticClass)
	}
}

func (b *planBuilder) addCompositeType(t metadata.Type, parentDir, name string, isStaticClass bool) {
	base := t.Common()
	dir := path.Join(parentDir, b.uniqueName(parentDir, name))
	b.add(Node{
		Path:  path.Join(dir, IndexFile),
		Kind:  NodeTypeIndex,
		UID:   base.UID,
		Title: base.Name,
	})

	groups := b.groupMembers(t)

	// Constructors: omitted for static types or when none exist. A single
	// constructor gets the fixed filename, multiple get numbered ones.
	if !isStaticClass && len(groups.Constructors) > 0 {
		ctorDir := path.Join(dir, FolderConstructors)
		if len(groups.Constructors) == 1 {
			c := groups.Constructors[0]
			b.add(Node{
				Path:  path.Join(ctorDir, FileConstructor),
				Kind:  NodeConstructor,
				UID:   c.UID,
				Title: c.Name,
			})
		} else {
			for i, c := range groups.Constructors {
				b.add(Node{
					Path:  path.Join(ctorDir, fmt.Sprintf("Constructor-%d.md", i+1)),
					Kind:  NodeConstructor,
					UID:   c.UID,
					Title: c.Name,
				})
			}
		}
	}

	if groups.StaticConstructor != nil {
		b.add(Node{
			Path:  path.Join(dir, FileStaticConstructor),
			Kind:  NodeStaticConstructor,
			UID:   groups.StaticConstructor.UID,
			Title: groups.StaticConstructor.Name,
		})
	}

	// Methods, operators, and conversions aggregate into one file per
	// distinct name holding all overloads of that name.
	callable := make([]*metadata.Member, 0, len(groups.Methods)+len(groups.Operators)+len(groups.Conversions))
	callable = append(callable, groups.Methods...)
	callable = append(callable, groups.Operators...)
	callable = append(callable, groups.Conversions...)
	if len(callable) > 0 {
		methodsDir := path.Join(dir, FolderMethods)
		for _, group := range metadata.GroupMethodsByName(callable) {
			uids := make([]metadata.UID, 0, len(group.Overloads))
			for _, m := range group.Overloads {
				uids = append(uids, m.UID)
			}
			file := b.uniqueName(methodsDir, Sanitize(group.Name)) + ".md"
			b.add(Node{
				Path:  path.Join(methodsDir, file),
				Kind:  NodeMethodGroup,
				UID:   uids[0],
				UIDs:  uids,
				Title: group.Name,
			})
		}
	}

	b.addMemberFiles(path.Join(dir, FolderProperties), NodeProperty, groups.Properties)
	b.addMemberFiles(path.Join(dir, FolderFields), NodeField, groups.Fields)
	b.addMemberFiles(path.Join(dir, FolderEvents), NodeEvent, groups.Events)

	if len(base.NestedTypes) > 0 {
		nestedDir := path.Join(dir, FolderNestedTypes)
		for _, nested := range b.nestedTypes(base) {
			b.addType(nested, nestedDir)
		}
	}
}

func (b *planBuilder) addMemberFiles(dir string, kind NodeKind, members []*metadata.Member) {
	for _, m := range members {
		file := b.uniqueName(dir, Sanitize(m.Name)) + ".md"
		b.add(Node{
			Path:  path.Join(dir, file),
			Kind:  kind,
			UID:   m.UID,
			Title: m.Name,
		})
	}
}

// groupMembers wraps Graph.GroupMembers, applying the ignore policy and
// reporting unresolved member UIDs.
func (b *planBuilder) groupMembers(t metadata.Type) metadata.MemberGroups {
	groups := b.graph.GroupMembers(t)
	for _, uid := range groups.Unresolved {
		b.rep.Warnf(string(uid), "", "member does not resolve; skipped")
	}
	groups.Constructors = b.filterMembers(groups.Constructors)
	groups.Methods = b.filterMembers(groups.Methods)
	groups.Properties = b.filterMembers(groups.Properties)
	groups.Fields = b.filterMembers(groups.Fields)
	groups.Events = b.filterMembers(groups.Events)
	groups.EnumValues = b.filterMembers(groups.EnumValues)
	groups.Operators = b.filterMembers(groups.Operators)
	groups.Conversions = b.filterMembers(groups.Conversions)
	if sc := groups.StaticConstructor; sc != nil && b.ignore.Member(sc) {
		b.plan.Ignored++
		groups.StaticConstructor = nil
	}
	return groups
}

func (b *planBuilder) filterMembers(members []*metadata.Member) []*metadata.Member {
	out := members[:0:0]
	for _, m := range members {
		if b.ignore.Member(m) {
			b.plan.Ignored++
			continue
		}
		out = append(out, m)
	}
	return out
}

func (b *planBuilder) nestedTypes(base *metadata.TypeBase) []metadata.Type {
	out := make([]metadata.Type, 0, len(base.NestedTypes))
	for _, uid := range base.NestedTypes {
		nested, ok := b.graph.ResolveType(uid)
		if !ok {
			b.rep.Warnf(string(uid), "", "nested type does not resolve; skipped")
			continue
		}
		if b.ignore.Type(nested) {
			b.plan.Ignored++
			continue
		}
		out = append(out, nested)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Common().Name != out[j].Common().Name {
			return out[i].Common().Name < out[j].Common().Name
		}
		return out[i].Common().UID < out[j].Common().UID
	})
	return out
}
