package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleArtifact = `{
  "schema": 1,
  "tool": "mdextract",
  "version": "1.0.0",
  "namespaces": [
    {"uid": "N:Foo", "name": "Foo", "types": ["T:Foo.Bar", "T:Foo.Color"]}
  ],
  "types": [
    {
      "type_kind": "class",
      "uid": "T:Foo.Bar",
      "name": "Bar",
      "namespace": "N:Foo",
      "members": ["M:Foo.Bar.Do(System.Int32)"]
    },
    {
      "type_kind": "enum",
      "uid": "T:Foo.Color",
      "name": "Color",
      "namespace": "N:Foo",
      "underlying": "int"
    },
    {
      "type_kind": "delegate",
      "uid": "T:Foo.Handler",
      "name": "Handler",
      "namespace": "N:Foo",
      "return_type": "void",
      "parameters": [{"name": "sender", "type": "object"}]
    }
  ],
  "members": [
    {
      "uid": "M:Foo.Bar.Do(System.Int32)",
      "name": "Do",
      "kind": "method",
      "declaring_type": "T:Foo.Bar"
    }
  ]
}`

func TestParseGraph(t *testing.T) {
	g, err := ParseGraph([]byte(sampleArtifact))
	require.NoError(t, err)

	require.Equal(t, 1, g.SchemaVersion)
	require.Equal(t, "1.0.0", g.Version)
	require.Equal(t, 1, g.NamespaceCount())
	require.Equal(t, 3, g.TypeCount())

	bar, ok := g.ResolveType("T:Foo.Bar")
	require.True(t, ok)
	require.Equal(t, TypeClass, bar.TypeKind())

	color, ok := g.ResolveType("T:Foo.Color")
	require.True(t, ok)
	enum, isEnum := color.(*Enum)
	require.True(t, isEnum)
	require.Equal(t, "int", enum.Underlying)

	handler, ok := g.ResolveType("T:Foo.Handler")
	require.True(t, ok)
	del, isDelegate := handler.(*Delegate)
	require.True(t, isDelegate)
	require.Len(t, del.Parameters, 1)

	// Seal ran: Foo hangs off the global namespace.
	require.Equal(t, []UID{"N:Foo"}, g.Global().Children)
}

func TestParseGraphRejectsUnknownTypeKind(t *testing.T) {
	_, err := ParseGraph([]byte(`{"types":[{"type_kind":"union","uid":"T:X","name":"X"}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type kind")
}

func TestParseGraphRejectsTypeWithoutUID(t *testing.T) {
	_, err := ParseGraph([]byte(`{"types":[{"type_kind":"class","name":"X"}]}`))
	require.Error(t, err)
}

func TestLoadGraphHashesArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleArtifact), 0o640))

	g, hash, err := LoadGraph(path)
	require.NoError(t, err)
	require.NotNil(t, g)
	require.Len(t, hash, 64)

	_, hash2, err := LoadGraph(path)
	require.NoError(t, err)
	require.Equal(t, hash, hash2)
}

func TestLoadGraphMissingFile(t *testing.T) {
	_, _, err := LoadGraph(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
