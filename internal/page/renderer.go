// Package page combines generated structural skeletons with sidecar content
// to produce final documentation pages.
//
// Injection points are fixed by entity kind: namespace sidecar content goes
// before the listing tables; type and member sidecar content goes after the
// signature/summary block and before any detailed sub-listing. The reserved
// "See Also" block always renders last.
package page

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/sidecar"
	"git.home.luguber.info/inful/refdocs/internal/structure"
	"git.home.luguber.info/inful/refdocs/internal/util/sets"
)

// Renderer produces the final content of generated nodes. It is pure with
// respect to (graph, plan, sidecar state); diagnostics go to rep.
type Renderer struct {
	graph   *metadata.Graph
	plan    *structure.Plan
	store   *sidecar.Store
	rep     *report.Report
	coll    *collate.Collator
	version string
}

// NewRenderer creates a renderer for one generation pass.
func NewRenderer(g *metadata.Graph, plan *structure.Plan, store *sidecar.Store, rep *report.Report, version string) *Renderer {
	return &Renderer{
		graph:   g,
		plan:    plan,
		store:   store,
		rep:     rep,
		coll:    newCollator(),
		version: version,
	}
}

// Render produces the full page bytes for one node.
func (r *Renderer) Render(node structure.Node) ([]byte, error) {
	var b strings.Builder

	switch node.Kind {
	case structure.NodeNamespaceIndex:
		r.renderNamespace(&b, node)
	case structure.NodeTypeIndex:
		r.renderTypeIndex(&b, node)
	case structure.NodeDelegate:
		r.renderDelegate(&b, node)
	case structure.NodeMethodGroup:
		r.renderMethodGroup(&b, node)
	case structure.NodeConstructor, structure.NodeStaticConstructor,
		structure.NodeProperty, structure.NodeField, structure.NodeEvent,
		structure.NodeEnumValue:
		r.renderMember(&b, node)
	default:
		return nil, fmt.Errorf("unknown node kind %q", node.Kind)
	}

	fields := map[string]any{
		"title":   node.Title,
		"uid":     string(node.UID),
		"kind":    string(node.Kind),
		"version": r.version,
	}
	fm, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
	if err != nil {
		return nil, fmt.Errorf("serialize page frontmatter: %w", err)
	}
	return frontmatter.Join(fm, []byte(b.String()), true, frontmatter.Style{Newline: "\n"}), nil
}

func (r *Renderer) renderNamespace(b *strings.Builder, node structure.Node) {
	ns, ok := r.graph.ResolveNamespace(node.UID)

	writeTitle(b, node.Title)

	entry := r.entryFor(node.UID)
	// Namespace injection point: before the listing tables.
	r.writeEntryContent(b, entry)

	if !ok {
		r.rep.Warnf(string(node.UID), node.Path, "namespace does not resolve; placeholder page")
		r.writeSeeAlso(b, node, entry)
		return
	}

	var nsRows []row
	for _, uid := range ns.Children {
		target, addressed := r.plan.NodeFor(uid)
		if !addressed {
			continue
		}
		child, resolved := r.graph.ResolveNamespace(uid)
		if !resolved {
			r.rep.Warnf(string(uid), node.Path, "listed namespace does not resolve; dropped from listing")
			continue
		}
		nsRows = append(nsRows, row{
			name:        displayName(child),
			link:        relLink(node.Path, target.Path),
			description: r.store.Description(uid),
		})
	}
	sortRows(r.coll, nsRows)
	writeTable(b, "Namespaces", nsRows)

	var typeRows []row
	for _, uid := range ns.Types {
		target, addressed := r.plan.NodeFor(uid)
		if !addressed {
			// Ignored or unresolved types are not listed anywhere.
			continue
		}
		t, resolved := r.graph.ResolveType(uid)
		if !resolved {
			r.rep.Warnf(string(uid), node.Path, "listed type does not resolve; dropped from listing")
			continue
		}
		typeRows = append(typeRows, row{
			name:        displayName(t),
			link:        relLink(node.Path, target.Path),
			description: r.store.Description(uid),
		})
	}
	sortRows(r.coll, typeRows)
	writeTable(b, "Types", typeRows)

	r.writeSeeAlso(b, node, entry)
}

func (r *Renderer) renderTypeIndex(b *strings.Builder, node structure.Node) {
	writeTitle(b, node.Title)

	t, ok := r.graph.ResolveType(node.UID)
	entry := r.entryFor(node.UID)

	if !ok {
		r.rep.Warnf(string(node.UID), node.Path, "type does not resolve; placeholder page")
		r.writeEntryContent(b, entry)
		r.writeSeeAlso(b, node, entry)
		return
	}

	writeSignature(b, r.typeSignature(t))
	if entry != nil && entry.Description != "" {
		b.WriteString(entry.Description)
		b.WriteString("\n\n")
	}

	// Type injection point: after the signature/summary block, before the
	// member listings.
	r.writeEntrySections(b, entry)

	groups := r.graph.GroupMembers(t)
	r.writeMemberTable(b, node, "Constructors", groups.Constructors)
	r.writeMethodTable(b, node, groups)
	r.writeMemberTable(b, node, "Properties", groups.Properties)
	r.writeMemberTable(b, node, "Fields", groups.Fields)
	r.writeMemberTable(b, node, "Events", groups.Events)
	if t.TypeKind() == metadata.TypeEnum {
		r.writeMemberTable(b, node, "Fields", groups.EnumValues)
	}
	r.writeNestedTable(b, node, t)

	r.writeSeeAlso(b, node, entry)
}

func (r *Renderer) renderDelegate(b *strings.Builder, node structure.Node) {
	writeTitle(b, node.Title)

	t, ok := r.graph.ResolveType(node.UID)
	entry := r.entryFor(node.UID)
	if ok {
		writeSignature(b, r.typeSignature(t))
	} else {
		r.rep.Warnf(string(node.UID), node.Path, "delegate does not resolve; placeholder page")
	}
	if entry != nil && entry.Description != "" {
		b.WriteString(entry.Description)
		b.WriteString("\n\n")
	}
	r.writeEntrySections(b, entry)
	r.writeSeeAlso(b, node, entry)
}

func (r *Renderer) renderMethodGroup(b *strings.Builder, node structure.Node) {
	writeTitle(b, r.memberTitle(node))

	// Merge the sidecar entries of every overload, least to most specific in
	// declaration order, into one document for the aggregated page.
	entries := make([]*sidecar.Entry, 0, len(node.UIDs))
	for _, uid := range node.UIDs {
		if e, ok := r.store.Get(uid); ok {
			entries = append(entries, r.withInherited(uid, e))
		}
	}
	entry := sidecar.Merge(entries...)

	for _, uid := range node.UIDs {
		m, ok := r.graph.ResolveMember(uid)
		if !ok {
			r.rep.Warnf(string(uid), node.Path, "overload does not resolve; dropped")
			continue
		}
		writeSignature(b, memberSignature(m))
	}

	if entry.Description != "" {
		b.WriteString(entry.Description)
		b.WriteString("\n\n")
	}
	r.writeEntrySections(b, entry)
	r.writeSeeAlso(b, node, entry)
}

func (r *Renderer) renderMember(b *strings.Builder, node structure.Node) {
	writeTitle(b, r.memberTitle(node))

	m, ok := r.graph.ResolveMember(node.UID)
	entry := r.entryFor(node.UID)
	if ok {
		writeSignature(b, memberSignature(m))
	} else {
		r.rep.Warnf(string(node.UID), node.Path, "member does not resolve; placeholder page")
	}

	if entry != nil && entry.Description != "" {
		b.WriteString(entry.Description)
		b.WriteString("\n\n")
	}
	// Member injection point: after the signature/summary block.
	r.writeEntrySections(b, entry)
	r.writeSeeAlso(b, node, entry)
}

// entryFor returns the sidecar entry for a UID, folding in inherited
// documentation for members with an origin chain.
func (r *Renderer) entryFor(uid metadata.UID) *sidecar.Entry {
	e, ok := r.store.Get(uid)
	if !ok {
		e = nil
	}
	return r.withInherited(uid, e)
}

// withInherited merges the origin chain's entries (least specific first)
// with the member's own entry. A cycle in origin links terminates the walk.
func (r *Renderer) withInherited(uid metadata.UID, own *sidecar.Entry) *sidecar.Entry {
	m, ok := r.graph.ResolveMember(uid)
	if !ok || !m.Inherited() {
		return own
	}

	var chain []*sidecar.Entry
	visited := sets.New(string(uid))
	cur := m
	for cur.Inherited() {
		origin, resolved := r.graph.ResolveMember(cur.Origin)
		if !resolved || visited.Has(string(origin.UID)) {
			break
		}
		visited.Add(string(origin.UID))
		if e, found := r.store.Get(origin.UID); found {
			chain = append(chain, e)
		}
		cur = origin
	}
	if len(chain) == 0 && own == nil {
		return nil
	}

	// chain is most-specific-first; Merge wants least specific first.
	ordered := make([]*sidecar.Entry, 0, len(chain)+1)
	for i := len(chain) - 1; i >= 0; i-- {
		ordered = append(ordered, chain[i])
	}
	ordered = append(ordered, own)
	return sidecar.Merge(ordered...)
}

func (r *Renderer) memberTitle(node structure.Node) string {
	if m, ok := r.graph.ResolveMember(node.UID); ok {
		if t, tok := r.graph.ResolveType(m.DeclaringType); tok {
			return displayName(t) + "." + node.Title
		}
	}
	return node.Title
}

func (r *Renderer) writeMemberTable(b *strings.Builder, node structure.Node, heading string, members []*metadata.Member) {
	var rows []row
	for _, m := range members {
		target, addressed := r.plan.NodeFor(m.UID)
		if !addressed {
			continue
		}
		rows = append(rows, row{
			name:        m.Name,
			link:        relLink(node.Path, target.Path),
			description: r.store.Description(m.UID),
		})
	}
	sortRows(r.coll, rows)
	writeTable(b, heading, rows)
}

// writeMethodTable lists one row per aggregated method name, not one per
// overload.
func (r *Renderer) writeMethodTable(b *strings.Builder, node structure.Node, groups metadata.MemberGroups) {
	callable := make([]*metadata.Member, 0, len(groups.Methods)+len(groups.Operators)+len(groups.Conversions))
	callable = append(callable, groups.Methods...)
	callable = append(callable, groups.Operators...)
	callable = append(callable, groups.Conversions...)

	var rows []row
	seen := sets.New[string]()
	for _, g := range metadata.GroupMethodsByName(callable) {
		target, addressed := r.plan.NodeFor(g.Overloads[0].UID)
		if !addressed || seen.Has(target.Path) {
			continue
		}
		seen.Add(target.Path)
		rows = append(rows, row{
			name:        g.Name,
			link:        relLink(node.Path, target.Path),
			description: r.store.Description(g.Overloads[0].UID),
		})
	}
	sortRows(r.coll, rows)
	writeTable(b, "Methods", rows)
}

func (r *Renderer) writeNestedTable(b *strings.Builder, node structure.Node, t metadata.Type) {
	var rows []row
	for _, uid := range t.Common().NestedTypes {
		target, addressed := r.plan.NodeFor(uid)
		if !addressed {
			continue
		}
		nested, resolved := r.graph.ResolveType(uid)
		if !resolved {
			r.rep.Warnf(string(uid), node.Path, "listed nested type does not resolve; dropped from listing")
			continue
		}
		rows = append(rows, row{
			name:        displayName(nested),
			link:        relLink(node.Path, target.Path),
			description: r.store.Description(uid),
		})
	}
	sortRows(r.coll, rows)
	writeTable(b, "Nested Types", rows)
}

// writeEntryContent renders the full injectable sidecar content minus the
// reserved "See Also" block: description, intro, then sections in resolved
// order.
func (r *Renderer) writeEntryContent(b *strings.Builder, entry *sidecar.Entry) {
	if entry == nil {
		return
	}
	if entry.Description != "" {
		b.WriteString(entry.Description)
		b.WriteString("\n\n")
	}
	r.writeEntrySections(b, entry)
}

// writeEntrySections renders the intro and the non-"See Also" sections in
// resolved order. Empty-content sections are omitted.
func (r *Renderer) writeEntrySections(b *strings.Builder, entry *sidecar.Entry) {
	if entry == nil {
		return
	}
	if intro := strings.TrimSpace(entry.Intro); intro != "" && !isCommentOnly(intro) {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}
	for _, s := range entry.ResolveOrder() {
		if s.Heading == sidecar.SeeAlsoHeading {
			continue
		}
		if strings.TrimSpace(s.Body) == "" {
			continue
		}
		b.WriteString("## ")
		b.WriteString(s.Heading)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n\n")
	}
}

// writeSeeAlso renders the reserved block last: frontmatter refs first, then
// any body section with the reserved heading. An unresolved UID reference
// renders a diagnostic marker instead of a broken link.
func (r *Renderer) writeSeeAlso(b *strings.Builder, node structure.Node, entry *sidecar.Entry) {
	if entry == nil {
		return
	}

	var lines []string
	for _, ref := range entry.SeeAlso {
		switch {
		case !ref.UID.IsZero():
			target, addressed := r.plan.NodeFor(ref.UID)
			ent, resolved := r.graph.Resolve(ref.UID)
			if !addressed || !resolved {
				r.rep.Warnf(string(ref.UID), node.Path, "see-also reference does not resolve")
				lines = append(lines, "> unresolved reference: "+string(ref.UID))
				continue
			}
			label := ref.Label
			if label == "" {
				label = displayName(ent)
			}
			lines = append(lines, "- ["+anchorText(label)+"]("+relLink(node.Path, target.Path)+")")
		case ref.URL != "":
			label := ref.Label
			if label == "" {
				label = ref.URL
			}
			lines = append(lines, "- ["+anchorText(label)+"]("+ref.URL+")")
		}
	}

	var bodySections []sidecar.Section
	for _, s := range entry.Sections {
		if s.Heading == sidecar.SeeAlsoHeading && strings.TrimSpace(s.Body) != "" {
			bodySections = append(bodySections, s)
		}
	}

	if len(lines) == 0 && len(bodySections) == 0 {
		return
	}

	b.WriteString("## ")
	b.WriteString(sidecar.SeeAlsoHeading)
	b.WriteString("\n\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(lines) > 0 {
		b.WriteString("\n")
	}
	for _, s := range bodySections {
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n\n")
	}
}

func writeTitle(b *strings.Builder, title string) {
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")
}

func writeSignature(b *strings.Builder, sig string) {
	if sig == "" {
		return
	}
	b.WriteString("```\n")
	b.WriteString(sig)
	b.WriteString("\n```\n\n")
}

// typeSignature synthesizes the declaration line shown in the signature
// fence. Unresolved base or interface references degrade to the UID rest.
func (r *Renderer) typeSignature(t metadata.Type) string {
	base := t.Common()
	name := displayName(t)

	switch tt := t.(type) {
	case *metadata.Class:
		sig := "class " + name
		if tt.Static {
			sig = "static " + sig
		}
		sig += r.inheritanceClause(tt.BaseType, tt.Implements)
		return sig
	case *metadata.Struct:
		return "struct " + name + r.inheritanceClause("", tt.Implements)
	case *metadata.Interface:
		return "interface " + name + r.inheritanceClause("", tt.Implements)
	case *metadata.Enum:
		sig := "enum " + name
		if tt.Underlying != "" {
			sig += " : " + tt.Underlying
		}
		return sig
	case *metadata.Delegate:
		params := make([]string, 0, len(tt.Parameters))
		for _, p := range tt.Parameters {
			params = append(params, p.Type+" "+p.Name)
		}
		ret := tt.ReturnType
		if ret == "" {
			ret = "void"
		}
		return "delegate " + ret + " " + name + "(" + strings.Join(params, ", ") + ")"
	default:
		return string(base.UID)
	}
}

func (r *Renderer) inheritanceClause(baseType metadata.UID, implements []metadata.UID) string {
	var parents []string
	if !baseType.IsZero() {
		parents = append(parents, r.refName(baseType))
	}
	for _, uid := range implements {
		parents = append(parents, r.refName(uid))
	}
	if len(parents) == 0 {
		return ""
	}
	return " : " + strings.Join(parents, ", ")
}

// refName resolves a UID to its display name, degrading to the UID's rest
// when resolution fails. Used in signatures where a marker would be noise.
func (r *Renderer) refName(uid metadata.UID) string {
	if e, ok := r.graph.Resolve(uid); ok {
		return displayName(e)
	}
	return uid.Rest()
}

func memberSignature(m *metadata.Member) string {
	if m.Signature != "" {
		return m.Signature
	}
	return string(m.Kind) + " " + m.Name
}

// displayName strips the generic-arity suffix from a declared name.
func displayName(e metadata.Entity) string {
	name := e.EntityName()
	if i := strings.IndexByte(name, '`'); i >= 0 {
		return name[:i]
	}
	return name
}

// isCommentOnly reports whether content is nothing but an HTML comment,
// i.e. the untouched skeleton placeholder.
func isCommentOnly(s string) bool {
	return strings.HasPrefix(s, "<!--") && strings.HasSuffix(s, "-->") &&
		strings.Count(s, "<!--") == 1
}
