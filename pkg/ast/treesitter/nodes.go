package treesitter

import (
	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

type baser interface {
	base() *node
}

// node is the shared state behind every converted tree-sitter node.
type node struct {
	kind     ast.Kind
	tsType   string
	ts       *sitter.Node
	parent   ast.Node
	children []ast.Node
	unit     *Unit
	loc      ast.FileLocation
	id       string
	name     ast.Name
	typeKey  int
	friend   bool
}

func (n *node) base() *node                     { return n }
func (n *node) Kind() ast.Kind                  { return n.kind }
func (n *node) Children() []ast.Node            { return n.children }
func (n *node) IdentityToken() string           { return n.id }
func (n *node) FileLocation() *ast.FileLocation { return &n.loc }

func (n *node) Parent() ast.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) TranslationUnit() ast.TranslationUnit {
	if n.unit == nil {
		return nil
	}
	return n.unit
}

func (n *node) RawSignature() string {
	src := n.unit.result.Source
	start, end := n.loc.Offset, n.loc.Offset+n.loc.Length
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return string(src[start:end])
}

// TSNode returns the underlying tree-sitter node. Synthesised nodes return
// the node their name was taken from.
func (n *node) TSNode() *sitter.Node { return n.ts }

// TSType returns the tree-sitter node type.
func (n *node) TSType() string { return n.tsType }

type plain struct{ *node }

type named struct{ *node }

func (n named) TypeKey() int   { return n.typeKey }
func (n named) IsFriend() bool { return n.friend }

func (n named) Name() ast.Name {
	if n.name == nil {
		return nil
	}
	return n.name
}

type funcDef struct{ *node }

func (f funcDef) IsFriend() bool { return f.friend }

func (f funcDef) Declarator() ast.FunctionDeclarator {
	for _, c := range f.children {
		if c.Kind() != ast.KindFunctionDeclarator {
			continue
		}
		if d, ok := c.(ast.FunctionDeclarator); ok {
			return d
		}
	}
	return nil
}

type implicitOwner struct {
	*node
	implicit []ast.Name
}

func (o implicitOwner) ImplicitNames() []ast.Name { return o.implicit }

// Unit is a converted translation unit.
type Unit struct {
	*node
	result *parser.ParseResult
	index  *Index
	header bool
}

// Ensure Unit implements ast.TranslationUnit.
var _ ast.TranslationUnit = (*Unit)(nil)

// FilePath implements ast.TranslationUnit.
func (u *Unit) FilePath() string { return u.result.Path }

// IsHeaderUnit implements ast.TranslationUnit.
func (u *Unit) IsHeaderUnit() bool { return u.header }

// Index implements ast.TranslationUnit.
func (u *Unit) Index() ast.Index { return u.index }

// TranslationUnit returns the unit itself.
func (u *Unit) TranslationUnit() ast.TranslationUnit { return u }

// Bindings returns the unit's canonical binding index.
func (u *Unit) Bindings() *Index { return u.index }

// Result returns the tree-sitter parse result the unit was converted from.
func (u *Unit) Result() *parser.ParseResult { return u.result }

// HasErrors reports whether tree-sitter recovered from syntax errors.
func (u *Unit) HasErrors() bool {
	return u.result.Tree.RootNode().HasError()
}

// name is a converted name occurrence. Its local binding is keyed by the
// lexical scope it appears in.
type name struct {
	text string
	bind *binding
}

func (n *name) String() string { return n.text }

// ResolveBinding implements ast.Name.
func (n *name) ResolveBinding() ast.Binding {
	if n.bind == nil {
		return nil
	}
	return n.bind
}
