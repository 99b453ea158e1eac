package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// artifact is the wire shape of the metadata graph artifact. Types and
// members carry a kind discriminator and are decoded into their tagged
// union representation.
type artifact struct {
	SchemaVersion int                 `json:"schema"`
	Tool          string              `json:"tool"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Version       string              `json:"version"`
	Assemblies    []*Assembly         `json:"assemblies"`
	Namespaces    []*Namespace        `json:"namespaces"`
	Types         []json.RawMessage   `json:"types"`
	Members       []*Member           `json:"members"`
	Attributes    []*Attribute        `json:"attributes"`
	GenericParams []*GenericParameter `json:"generic_parameters"`
}

type typeEnvelope struct {
	Kind TypeKind `json:"type_kind"`
}

// LoadGraph reads and decodes a metadata graph artifact from disk.
// It returns the sealed graph and the sha256 of the artifact bytes (used to
// record the run's input in the generation manifest).
func LoadGraph(path string) (*Graph, string, error) {
	// #nosec G304 - path comes from validated configuration
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("read metadata artifact: %w", err)
	}

	g, err := ParseGraph(data)
	if err != nil {
		return nil, "", err
	}

	sum := sha256.Sum256(data)
	return g, hex.EncodeToString(sum[:]), nil
}

// ParseGraph decodes a metadata graph artifact from raw bytes.
func ParseGraph(data []byte) (*Graph, error) {
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("unmarshal metadata artifact: %w", err)
	}

	g := NewGraph()
	g.SchemaVersion = art.SchemaVersion
	g.Tool = art.Tool
	g.GeneratedAt = art.GeneratedAt
	g.Version = art.Version

	for _, a := range art.Assemblies {
		g.AddAssembly(a)
	}
	for _, n := range art.Namespaces {
		g.AddNamespace(n)
	}
	for _, a := range art.Attributes {
		g.AddAttribute(a)
	}
	for _, p := range art.GenericParams {
		g.AddGenericParameter(p)
	}
	for _, m := range art.Members {
		g.AddMember(m)
	}

	for i, raw := range art.Types {
		t, err := decodeType(raw)
		if err != nil {
			return nil, fmt.Errorf("decode type %d: %w", i, err)
		}
		g.AddType(t)
	}

	g.Seal()
	return g, nil
}

func decodeType(raw json.RawMessage) (Type, error) {
	var env typeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("read type kind: %w", err)
	}

	var t Type
	switch env.Kind {
	case TypeClass:
		t = &Class{}
	case TypeStruct:
		t = &Struct{}
	case TypeInterface:
		t = &Interface{}
	case TypeEnum:
		t = &Enum{}
	case TypeDelegate:
		t = &Delegate{}
	default:
		return nil, fmt.Errorf("unknown type kind %q", env.Kind)
	}

	if err := json.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	if t.Common().UID.IsZero() {
		return nil, fmt.Errorf("type of kind %s has no uid", env.Kind)
	}
	return t, nil
}
