package page

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/sidecar"
	"git.home.luguber.info/inful/refdocs/internal/structure"
)

func testGraph() *metadata.Graph {
	g := metadata.NewGraph()
	g.AddNamespace(&metadata.Namespace{
		UID: "N:Foo", Name: "Foo",
		Types: []metadata.UID{"T:Foo.Bar"},
	})
	g.AddType(&metadata.Class{TypeBase: metadata.TypeBase{
		UID: "T:Foo.Bar", Name: "Bar", Namespace: "N:Foo",
		Members: []metadata.UID{
			"M:Foo.Bar.Do(System.Int32)",
			"M:Foo.Bar.Do(System.String)",
			"M:Foo.Bar.Value",
		},
	}})
	g.AddMember(&metadata.Member{UID: "M:Foo.Bar.Do(System.Int32)", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Bar", Signature: "void Do(int value)"})
	g.AddMember(&metadata.Member{UID: "M:Foo.Bar.Do(System.String)", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Bar", Signature: "void Do(string value)"})
	g.AddMember(&metadata.Member{UID: "M:Foo.Bar.Value", Name: "Value", Kind: metadata.MemberProperty, DeclaringType: "T:Foo.Bar", Signature: "int Value { get; }"})
	g.Seal()
	return g
}

func testSetup(t *testing.T, g *metadata.Graph) (*structure.Plan, *sidecar.Store, *report.Report, *Renderer) {
	t.Helper()
	cfg := &config.Config{GlobalNamespace: "Global", Version: "1.0.0"}
	rep := report.New()
	plan := structure.BuildPlan(g, cfg, rep)
	store := sidecar.NewStore(t.TempDir(), "1.0.0")
	r := NewRenderer(g, plan, store, rep, "1.0.0")
	return plan, store, rep, r
}

func writeSidecar(t *testing.T, store *sidecar.Store, relPath string, e *sidecar.Entry) {
	t.Helper()
	data, err := sidecar.Serialize(e, "1.0.0")
	require.NoError(t, err)
	full := filepath.Join(store.VersionDir(), filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, data, 0o640))
}

func mustNode(t *testing.T, plan *structure.Plan, uid metadata.UID) structure.Node {
	t.Helper()
	n, ok := plan.NodeFor(uid)
	require.True(t, ok, "no node for %s", uid)
	return n
}

func TestRenderNamespacePlaceholderDescriptions(t *testing.T) {
	g := testGraph()
	plan, _, _, r := testSetup(t, g)

	out, err := r.Render(mustNode(t, plan, "N:Foo"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "# Foo")
	require.Contains(t, page, "## Types")
	require.Contains(t, page, "[Bar](Types/Bar/_index.md)")
	require.Contains(t, page, PlaceholderDescription)
}

func TestRenderNamespaceInjectsSidecarBeforeListings(t *testing.T) {
	g := testGraph()
	plan, store, _, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/_index.md", &sidecar.Entry{
		UID:         "N:Foo",
		Description: "The Foo namespace.",
		Sections:    []sidecar.Section{{Heading: "Remarks", Body: "Namespace remarks."}},
	})
	writeSidecar(t, store, "Foo/Types/Bar/_index.md", &sidecar.Entry{
		UID:         "T:Foo.Bar",
		Description: "Bar does things.",
	})

	out, err := r.Render(mustNode(t, plan, "N:Foo"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "The Foo namespace.")
	require.Contains(t, page, "Bar does things.")
	require.NotContains(t, page, PlaceholderDescription)
	// Injection goes before the listing tables.
	require.Less(t, strings.Index(page, "Namespace remarks."), strings.Index(page, "## Types"))
}

func TestRenderTypeIndex(t *testing.T) {
	g := testGraph()
	plan, store, _, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/Types/Bar/_index.md", &sidecar.Entry{
		UID:         "T:Foo.Bar",
		Description: "Bar does things.",
		Sections:    []sidecar.Section{{Heading: "Remarks", Body: "Type remarks."}},
	})

	out, err := r.Render(mustNode(t, plan, "T:Foo.Bar"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "# Bar")
	require.Contains(t, page, "```\nclass Bar\n```")
	require.Contains(t, page, "Bar does things.")
	require.Contains(t, page, "## Remarks")
	require.Contains(t, page, "## Methods")
	require.Contains(t, page, "## Properties")
	// One aggregated row for Do, not one per overload.
	require.Equal(t, 1, strings.Count(page, "[Do](Methods/Do.md)"))
	// Injection goes after the signature, before the member listings.
	require.Less(t, strings.Index(page, "Type remarks."), strings.Index(page, "## Methods"))
	require.Less(t, strings.Index(page, "class Bar"), strings.Index(page, "Type remarks."))
}

func TestRenderMethodGroupListsAllOverloads(t *testing.T) {
	g := testGraph()
	plan, store, _, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/Types/Bar/Methods/Do.md", &sidecar.Entry{
		UID:         "M:Foo.Bar.Do(System.Int32)",
		Description: "Does the thing.",
	})

	out, err := r.Render(mustNode(t, plan, "M:Foo.Bar.Do(System.Int32)"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "# Bar.Do")
	require.Contains(t, page, "void Do(int value)")
	require.Contains(t, page, "void Do(string value)")
	require.Contains(t, page, "Does the thing.")
}

func TestRenderUnresolvedSeeAlsoMarker(t *testing.T) {
	g := testGraph()
	plan, store, rep, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/Types/Bar/_index.md", &sidecar.Entry{
		UID:     "T:Foo.Bar",
		SeeAlso: []sidecar.Ref{{UID: "T:Does.Not.Exist"}},
	})

	out, err := r.Render(mustNode(t, plan, "T:Foo.Bar"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "## See Also")
	require.Contains(t, page, "> unresolved reference: T:Does.Not.Exist")
	require.NotZero(t, rep.WarningCount())
}

func TestRenderSeeAlsoResolvedAndExternal(t *testing.T) {
	g := testGraph()
	plan, store, _, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/Types/Bar/Properties/Value.md", &sidecar.Entry{
		UID: "M:Foo.Bar.Value",
		SeeAlso: []sidecar.Ref{
			{UID: "T:Foo.Bar"},
			{URL: "https://example.com/guide", Label: "Guide"},
		},
	})

	out, err := r.Render(mustNode(t, plan, "M:Foo.Bar.Value"))
	require.NoError(t, err)
	page := string(out)

	require.Contains(t, page, "[Bar](../_index.md)")
	require.Contains(t, page, "[Guide](https://example.com/guide)")
	// See Also is the last section on the page.
	require.Greater(t, strings.Index(page, "## See Also"), strings.Index(page, "int Value"))
}

func TestRenderInheritedDocumentationMerged(t *testing.T) {
	g := metadata.NewGraph()
	g.AddNamespace(&metadata.Namespace{UID: "N:Foo", Name: "Foo", Types: []metadata.UID{"T:Foo.Base", "T:Foo.Derived"}})
	g.AddType(&metadata.Class{TypeBase: metadata.TypeBase{
		UID: "T:Foo.Base", Name: "Base", Namespace: "N:Foo",
		Members: []metadata.UID{"M:Foo.Base.Do"},
	}})
	g.AddType(&metadata.Class{TypeBase: metadata.TypeBase{
		UID: "T:Foo.Derived", Name: "Derived", Namespace: "N:Foo",
		Members: []metadata.UID{"M:Foo.Derived.Do"},
	}})
	g.AddMember(&metadata.Member{UID: "M:Foo.Base.Do", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Base"})
	g.AddMember(&metadata.Member{UID: "M:Foo.Derived.Do", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Derived", Origin: "M:Foo.Base.Do"})
	g.Seal()

	plan, store, _, r := testSetup(t, g)

	writeSidecar(t, store, "Foo/Types/Base/Methods/Do.md", &sidecar.Entry{
		UID:         "M:Foo.Base.Do",
		Description: "Base description.",
		Sections:    []sidecar.Section{{Heading: "Remarks", Body: "Base remarks."}},
	})
	writeSidecar(t, store, "Foo/Types/Derived/Methods/Do.md", &sidecar.Entry{
		UID:      "M:Foo.Derived.Do",
		Sections: []sidecar.Section{{Heading: "Remarks", Body: "Derived remarks."}},
	})

	out, err := r.Render(mustNode(t, plan, "M:Foo.Derived.Do"))
	require.NoError(t, err)
	page := string(out)

	// Inherited description survives; the more specific section wins.
	require.Contains(t, page, "Base description.")
	require.Contains(t, page, "Derived remarks.")
	require.NotContains(t, page, "Base remarks.")
}

func TestRenderUntouchedSkeletonIntroIsOmitted(t *testing.T) {
	g := testGraph()
	plan, store, _, r := testSetup(t, g)

	created, err := store.EnsureSkeleton("T:Foo.Bar", "Foo/Types/Bar/_index.md")
	require.NoError(t, err)
	require.True(t, created)

	out, err := r.Render(mustNode(t, plan, "T:Foo.Bar"))
	require.NoError(t, err)
	require.NotContains(t, string(out), "<!-- Add documentation")
}

func TestRenderEnumValuesInFieldsTable(t *testing.T) {
	g := metadata.NewGraph()
	g.AddNamespace(&metadata.Namespace{UID: "N:Foo", Name: "Foo", Types: []metadata.UID{"T:Foo.Color"}})
	g.AddType(&metadata.Enum{TypeBase: metadata.TypeBase{
		UID: "T:Foo.Color", Name: "Color", Namespace: "N:Foo",
		Members: []metadata.UID{"M:red"},
	}, Underlying: "int"})
	g.AddMember(&metadata.Member{UID: "M:red", Name: "Red", Kind: metadata.MemberEnumValue, DeclaringType: "T:Foo.Color"})
	g.Seal()

	plan, _, _, r := testSetup(t, g)

	out, err := r.Render(mustNode(t, plan, "T:Foo.Color"))
	require.NoError(t, err)
	page := string(out)
	require.Contains(t, page, "enum Color : int")
	require.Contains(t, page, "## Fields")
	require.Contains(t, page, "[Red](Fields/Red.md)")
}

func TestRenderIsDeterministic(t *testing.T) {
	g := testGraph()
	plan, _, _, r := testSetup(t, g)

	node := mustNode(t, plan, "N:Foo")
	a, err := r.Render(node)
	require.NoError(t, err)
	b, err := r.Render(node)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDisplayNameStripsArity(t *testing.T) {
	cls := &metadata.Class{TypeBase: metadata.TypeBase{UID: "T:L", Name: "List`1"}}
	require.Equal(t, "List", displayName(cls))
}

