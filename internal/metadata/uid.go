// Package metadata models the extracted metadata graph of a compiled
// codebase: assemblies, namespaces, types, members, attributes, and generic
// parameters, all addressed by kind-prefixed UIDs.
//
// The graph is a directed graph with unenforced referential integrity:
// dangling edges are expected, not exceptional. All lookups go through
// Graph.Resolve, which never panics and reports failure as a normal outcome.
package metadata

import "strings"

// UID is a globally unique, kind-prefixed identifier for one graph entity.
//
// Format: "<kind>:<rest>", e.g. "N:Foo", "T:Foo.Bar", "M:Foo.Bar.Do(System.Int32)".
type UID string

// Kind identifies the entity kind encoded in a UID prefix.
type Kind string

const (
	KindNamespace    Kind = "N"
	KindType         Kind = "T"
	KindMember       Kind = "M"
	KindAttribute    Kind = "A"
	KindGenericParam Kind = "G"
	KindAssembly     Kind = "Z"
	KindUnknown      Kind = ""
)

// Kind returns the kind encoded in the UID prefix, or KindUnknown if the
// UID has no recognizable prefix.
func (u UID) Kind() Kind {
	idx := strings.IndexByte(string(u), ':')
	if idx <= 0 {
		return KindUnknown
	}
	switch k := Kind(u[:idx]); k {
	case KindNamespace, KindType, KindMember, KindAttribute, KindGenericParam, KindAssembly:
		return k
	default:
		return KindUnknown
	}
}

// IsZero reports whether the UID is empty.
func (u UID) IsZero() bool { return u == "" }

// Rest returns the UID without its kind prefix.
func (u UID) Rest() string {
	idx := strings.IndexByte(string(u), ':')
	if idx < 0 {
		return string(u)
	}
	return string(u[idx+1:])
}

// GlobalNamespaceUID is the synthetic UID of the implicit global namespace.
// The loader attaches namespace-less types and parentless namespaces to it.
const GlobalNamespaceUID UID = "N:$global"
