package ast

// Kind discriminates the AST node roles the scope builder cares about.
type Kind uint8

const (
	KindOther Kind = iota
	KindTranslationUnit
	KindNamespaceDefinition
	KindFunctionDefinition
	KindFunctionDeclarator
	KindDeclarator
	KindCompositeTypeSpecifier
	KindElaboratedTypeSpecifier
	KindDeclSpecifier
	KindDeclaration
	KindLambdaExpression
	KindExpression
	KindStatement
	KindName
)

var kindNames = [...]string{
	KindOther:                   "other",
	KindTranslationUnit:         "translation_unit",
	KindNamespaceDefinition:     "namespace_definition",
	KindFunctionDefinition:      "function_definition",
	KindFunctionDeclarator:      "function_declarator",
	KindDeclarator:              "declarator",
	KindCompositeTypeSpecifier:  "composite_type_specifier",
	KindElaboratedTypeSpecifier: "elaborated_type_specifier",
	KindDeclSpecifier:           "decl_specifier",
	KindDeclaration:             "declaration",
	KindLambdaExpression:        "lambda_expression",
	KindExpression:              "expression",
	KindStatement:               "statement",
	KindName:                    "name",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type keys for composite and elaborated type specifiers.
const (
	TypeKeyEnum   = 0
	TypeKeyStruct = 1
	TypeKeyUnion  = 2
	TypeKeyClass  = 3
)

// TypeKeyName returns the C++ keyword for a type key.
func TypeKeyName(key int) string {
	switch key {
	case TypeKeyEnum:
		return "enum"
	case TypeKeyStruct:
		return "struct"
	case TypeKeyUnion:
		return "union"
	case TypeKeyClass:
		return "class"
	default:
		return "unknown"
	}
}

// FileLocation is the source range of a node.
// Lines are 1-based; Offset and Length are in bytes.
type FileLocation struct {
	Offset    int
	Length    int
	StartLine int
	EndLine   int
}

// Node is a single AST node. Implementations must be immutable for the
// duration of a traversal and return the same IdentityToken for the same
// underlying declaration on every call.
type Node interface {
	Kind() Kind
	Parent() Node
	Children() []Node
	TranslationUnit() TranslationUnit

	// FileLocation returns nil when the node carries no location data.
	FileLocation() *FileLocation

	// RawSignature is the node's source text.
	RawSignature() string

	IdentityToken() string
}

// TranslationUnit is the root of a parsed file.
type TranslationUnit interface {
	Node
	FilePath() string
	IsHeaderUnit() bool
	Index() Index
}

// Binding is an opaque resolved identity. Two bindings denote the same
// entity iff their keys are equal.
type Binding interface {
	Key() string
}

// Name is a name occurrence that can be resolved to a binding.
type Name interface {
	String() string

	// ResolveBinding returns the locally resolved binding, or nil.
	ResolveBinding() Binding
}

// Index adapts locally resolved bindings to program-wide canonical ones.
type Index interface {
	// AdaptBinding returns nil when the index has no canonical binding.
	AdaptBinding(b Binding) Binding
}

// NamedNode is implemented by nodes that carry a name.
type NamedNode interface {
	Node
	Name() Name
}

// NamespaceDefinition is a `namespace N { ... }` block.
type NamespaceDefinition interface {
	NamedNode
}

// TypeSpecifier is a composite (`struct S { ... }`) or elaborated
// (`struct S`) type specifier.
type TypeSpecifier interface {
	NamedNode
	TypeKey() int
	IsFriend() bool
}

// FunctionDeclarator is the declarator part of a function prototype or
// definition, e.g. `f(int x)`.
type FunctionDeclarator interface {
	NamedNode
	IsFriend() bool
}

// FunctionDefinition is a function declaration with a body.
type FunctionDefinition interface {
	Node
	Declarator() FunctionDeclarator
	IsFriend() bool
}

// ImplicitNameOwner marks constructs that synthesise names which do not
// appear in the source (lambda closures, calls to implicit constructors).
type ImplicitNameOwner interface {
	Node
	ImplicitNames() []Name
}

// IsImplicitNameOwner reports whether n synthesises implicit names.
func IsImplicitNameOwner(n Node) bool {
	_, ok := n.(ImplicitNameOwner)
	return ok
}

// ParentKind returns the kind of n's parent, or KindOther at the root.
func ParentKind(n Node) Kind {
	p := n.Parent()
	if p == nil {
		return KindOther
	}
	return p.Kind()
}
