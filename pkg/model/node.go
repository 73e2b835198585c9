package model

import (
	"fmt"
	"strings"

	"github.com/panbanda/metriculator/pkg/ast"
)

// Node is a single scope in the tree. Nodes are values owned by a Tree and
// addressed by NodeID; the parent link is an index, never a pointer.
type Node struct {
	Kind       Kind
	Name       string
	Descriptor Descriptor

	parent   NodeID
	children []NodeID
}

// Parent returns the id of the node's parent, or NoNode for a root.
func (n Node) Parent() NodeID { return n.parent }

// NewWorkspace returns a root node that groups several files.
func NewWorkspace(name string) Node {
	return Node{Kind: KindWorkspace, Name: name, Descriptor: Synthetic(name), parent: NoNode}
}

// NewFile returns a root node for a translation unit.
func NewFile(tu ast.TranslationUnit) (Node, error) {
	d, err := Describe(tu)
	if err != nil {
		return Node{}, err
	}
	return Node{Kind: KindFile, Name: tu.FilePath(), Descriptor: d, parent: NoNode}, nil
}

// NewNamespace returns a namespace scope. Anonymous namespaces are named
// "(anonymous)".
func NewNamespace(n ast.Node) (Node, error) {
	if err := expectKind(n, ast.KindNamespaceDefinition); err != nil {
		return Node{}, err
	}
	d, err := Describe(n)
	if err != nil {
		return Node{}, err
	}
	name := nameOf(n)
	if name == "" {
		name = "(anonymous)"
	}
	return Node{Kind: KindNamespace, Name: name, Descriptor: d, parent: NoNode}, nil
}

// NewCompositeType returns a type scope for a composite or elaborated type
// specifier. Anonymous types are named after their offset so that two
// unnamed structs in one scope stay distinct.
func NewCompositeType(n ast.Node) (Node, error) {
	if n.Kind() != ast.KindCompositeTypeSpecifier && n.Kind() != ast.KindElaboratedTypeSpecifier {
		return Node{}, fmt.Errorf("%w: %s is not a type specifier", ErrUnsupportedNode, n.Kind())
	}
	d, err := Describe(n)
	if err != nil {
		return Node{}, err
	}
	name := nameOf(n)
	if name == "" {
		name = fmt.Sprintf("(anonymous@%d)", d.Offset())
	}
	return Node{Kind: KindCompositeType, Name: name, Descriptor: d, parent: NoNode}, nil
}

// NewFunctionDecl returns a function scope for a declarator outside a
// function definition. The scope name is the declarator's signature.
func NewFunctionDecl(n ast.Node) (Node, error) {
	if err := expectKind(n, ast.KindFunctionDeclarator); err != nil {
		return Node{}, err
	}
	d, err := Describe(n)
	if err != nil {
		return Node{}, err
	}
	return Node{Kind: KindFunctionDecl, Name: Signature(n.RawSignature()), Descriptor: d, parent: NoNode}, nil
}

// NewFunctionDef returns a function scope for a definition. The scope name
// is the signature of its declarator.
func NewFunctionDef(n ast.Node) (Node, error) {
	if err := expectKind(n, ast.KindFunctionDefinition); err != nil {
		return Node{}, err
	}
	d, err := Describe(n)
	if err != nil {
		return Node{}, err
	}
	name := ""
	if def, ok := n.(ast.FunctionDefinition); ok && def.Declarator() != nil {
		name = Signature(def.Declarator().RawSignature())
	}
	if name == "" {
		raw := n.RawSignature()
		if i := strings.IndexByte(raw, '{'); i >= 0 {
			raw = raw[:i]
		}
		name = Signature(raw)
	}
	return Node{Kind: KindFunctionDef, Name: name, Descriptor: d, parent: NoNode}, nil
}

// NewMember returns a leaf for a data member declarator.
func NewMember(n ast.Node) (Node, error) {
	if err := expectKind(n, ast.KindDeclarator); err != nil {
		return Node{}, err
	}
	d, err := Describe(n)
	if err != nil {
		return Node{}, err
	}
	return Node{Kind: KindMember, Name: Signature(n.RawSignature()), Descriptor: d, parent: NoNode}, nil
}

// FromAST builds the scope variant matching n's kind.
func FromAST(n ast.Node) (Node, error) {
	switch n.Kind() {
	case ast.KindTranslationUnit:
		tu, ok := n.(ast.TranslationUnit)
		if !ok {
			return Node{}, fmt.Errorf("%w: translation unit without unit data", ErrUnsupportedNode)
		}
		return NewFile(tu)
	case ast.KindNamespaceDefinition:
		return NewNamespace(n)
	case ast.KindCompositeTypeSpecifier, ast.KindElaboratedTypeSpecifier:
		return NewCompositeType(n)
	case ast.KindFunctionDeclarator:
		return NewFunctionDecl(n)
	case ast.KindFunctionDefinition:
		return NewFunctionDef(n)
	case ast.KindDeclarator:
		return NewMember(n)
	default:
		return Node{}, fmt.Errorf("%w: %s", ErrUnsupportedNode, n.Kind())
	}
}

// Signature collapses runs of whitespace in a raw signature.
func Signature(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func nameOf(n ast.Node) string {
	named, ok := n.(ast.NamedNode)
	if !ok || named.Name() == nil {
		return ""
	}
	return named.Name().String()
}

func expectKind(n ast.Node, want ast.Kind) error {
	if n.Kind() != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnsupportedNode, n.Kind(), want)
	}
	return nil
}
