package metadata

// Entity is implemented by every addressable node of the metadata graph.
type Entity interface {
	// EntityUID returns the unique identifier of the entity.
	EntityUID() UID
	// EntityName returns the declared (unsanitized) name of the entity.
	EntityName() string
}

// Namespace is one node of the namespace forest.
type Namespace struct {
	UID      UID    `json:"uid"`
	Name     string `json:"name"`
	Parent   UID    `json:"parent,omitempty"`
	Children []UID  `json:"children,omitempty"`
	Types    []UID  `json:"types,omitempty"`
}

func (n *Namespace) EntityUID() UID     { return n.UID }
func (n *Namespace) EntityName() string { return n.Name }

// IsGlobal reports whether this is the implicit global namespace.
func (n *Namespace) IsGlobal() bool { return n.UID == GlobalNamespaceUID }

// Assembly identifies one compiled unit the graph was extracted from.
type Assembly struct {
	UID     UID    `json:"uid"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (a *Assembly) EntityUID() UID     { return a.UID }
func (a *Assembly) EntityName() string { return a.Name }

// Attribute is one attribute usage referenced by types and members.
type Attribute struct {
	UID       UID      `json:"uid"`
	Name      string   `json:"name"`
	Arguments []string `json:"arguments,omitempty"`
}

func (a *Attribute) EntityUID() UID     { return a.UID }
func (a *Attribute) EntityName() string { return a.Name }

// GenericParameter is one declared generic parameter of a type or member.
type GenericParameter struct {
	UID         UID      `json:"uid"`
	Name        string   `json:"name"`
	Constraints []string `json:"constraints,omitempty"`
}

func (g *GenericParameter) EntityUID() UID     { return g.UID }
func (g *GenericParameter) EntityName() string { return g.Name }

// TypeKind discriminates declared types.
type TypeKind string

const (
	TypeClass     TypeKind = "class"
	TypeStruct    TypeKind = "struct"
	TypeInterface TypeKind = "interface"
	TypeEnum      TypeKind = "enum"
	TypeDelegate  TypeKind = "delegate"
)

// TypeBase holds the fields shared by every type kind.
type TypeBase struct {
	UID               UID    `json:"uid"`
	Name              string `json:"name"`
	Namespace         UID    `json:"namespace,omitempty"`
	Assembly          UID    `json:"assembly,omitempty"`
	Enclosing         UID    `json:"enclosing,omitempty"`
	NestedTypes       []UID  `json:"nested_types,omitempty"`
	Members           []UID  `json:"members,omitempty"`
	Attributes        []UID  `json:"attributes,omitempty"`
	GenericParams     []UID  `json:"generic_parameters,omitempty"`
	CompilerGenerated bool   `json:"compiler_generated,omitempty"`
}

func (b *TypeBase) EntityUID() UID     { return b.UID }
func (b *TypeBase) EntityName() string { return b.Name }

// Common returns the shared fields; it lets kind-agnostic code work on any
// Type without a type switch.
func (b *TypeBase) Common() *TypeBase { return b }

// Type is the tagged union over declared type kinds. Generation rules switch
// exhaustively on TypeKind; adding a kind without handling it is a bug the
// switch should surface.
type Type interface {
	Entity
	TypeKind() TypeKind
	Common() *TypeBase
}

// Class is a class declaration.
type Class struct {
	TypeBase
	BaseType   UID   `json:"base_type,omitempty"`
	Implements []UID `json:"implements,omitempty"`
	Static     bool  `json:"static,omitempty"`
}

func (c *Class) TypeKind() TypeKind { return TypeClass }

// Struct is a value-type declaration.
type Struct struct {
	TypeBase
	Implements []UID `json:"implements,omitempty"`
}

func (s *Struct) TypeKind() TypeKind { return TypeStruct }

// Interface is an interface declaration.
type Interface struct {
	TypeBase
	Implements []UID `json:"implements,omitempty"`
}

func (i *Interface) TypeKind() TypeKind { return TypeInterface }

// Enum is an enum declaration. Its values are members of kind MemberEnumValue.
type Enum struct {
	TypeBase
	Underlying string `json:"underlying,omitempty"`
}

func (e *Enum) TypeKind() TypeKind { return TypeEnum }

// Delegate is a delegate declaration. Delegates carry their signature inline
// and generate a single page instead of a folder.
type Delegate struct {
	TypeBase
	ReturnType string      `json:"return_type,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

func (d *Delegate) TypeKind() TypeKind { return TypeDelegate }

// Parameter is one parameter of a delegate or member signature.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MemberKind discriminates type members.
type MemberKind string

const (
	MemberConstructor       MemberKind = "constructor"
	MemberStaticConstructor MemberKind = "static-constructor"
	MemberMethod            MemberKind = "method"
	MemberProperty          MemberKind = "property"
	MemberField             MemberKind = "field"
	MemberEvent             MemberKind = "event"
	MemberEnumValue         MemberKind = "enum-value"
	MemberOperator          MemberKind = "operator"
	MemberConversion        MemberKind = "conversion"
)

// Member is one member of a declared type.
type Member struct {
	UID               UID        `json:"uid"`
	Name              string     `json:"name"`
	Kind              MemberKind `json:"kind"`
	Signature         string     `json:"signature,omitempty"`
	DeclaringType     UID        `json:"declaring_type"`
	// Origin is the UID of the member this one inherits or overrides, when
	// the member did not originate on its declaring type.
	Origin            UID        `json:"origin,omitempty"`
	Attributes        []UID      `json:"attributes,omitempty"`
	GenericParams     []UID      `json:"generic_parameters,omitempty"`
	CompilerGenerated bool       `json:"compiler_generated,omitempty"`
	Static            bool       `json:"static,omitempty"`
}

func (m *Member) EntityUID() UID     { return m.UID }
func (m *Member) EntityName() string { return m.Name }

// Inherited reports whether the member originates elsewhere.
func (m *Member) Inherited() bool { return !m.Origin.IsZero() && m.Origin != m.UID }
