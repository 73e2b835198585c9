// Package asttest builds synthetic C++ ASTs for tests.
//
// Nodes are assembled bottom-up with the constructors below and attached to
// a translation unit with TU or Header, which also assigns parents, distinct
// locations and identity tokens in pre-order:
//
//	tu := asttest.TU("a.cpp",
//	    asttest.Namespace("N",
//	        asttest.Declaration(
//	            asttest.Struct("S",
//	                asttest.Declaration(asttest.FuncDecl("f()")),
//	            ),
//	        ),
//	    ),
//	)
package asttest

import (
	"fmt"
	"strings"

	"github.com/panbanda/metriculator/pkg/ast"
)

// Binding is a binding identified by its key.
type Binding string

// Key implements ast.Binding.
func (b Binding) Key() string { return string(b) }

// Name is a name whose local binding is its own text.
type Name string

func (n Name) String() string { return string(n) }

// ResolveBinding implements ast.Name. Empty names do not resolve.
func (n Name) ResolveBinding() ast.Binding {
	if n == "" {
		return nil
	}
	return Binding(n)
}

// Index maps local binding keys to canonical keys.
type Index map[string]string

// AdaptBinding implements ast.Index.
func (idx Index) AdaptBinding(b ast.Binding) ast.Binding {
	if b == nil {
		return nil
	}
	if canonical, ok := idx[b.Key()]; ok {
		return Binding(canonical)
	}
	return nil
}

type baser interface {
	base() *node
}

type node struct {
	kind     ast.Kind
	parent   ast.Node
	children []ast.Node
	unit     *Unit
	loc      *ast.FileLocation
	noLoc    bool
	raw      string
	id       string
	name     Name
	typeKey  int
	friend   bool
}

func (n *node) base() *node                     { return n }
func (n *node) Kind() ast.Kind                  { return n.kind }
func (n *node) Children() []ast.Node            { return n.children }
func (n *node) RawSignature() string            { return n.raw }
func (n *node) IdentityToken() string           { return n.id }
func (n *node) FileLocation() *ast.FileLocation { return n.loc }

func (n *node) TranslationUnit() ast.TranslationUnit {
	if n.unit == nil {
		return nil
	}
	return n.unit
}

func (n *node) Parent() ast.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

type plain struct{ *node }

type named struct{ *node }

func (n named) Name() ast.Name { return n.name }
func (n named) TypeKey() int   { return n.typeKey }
func (n named) IsFriend() bool { return n.friend }

type funcDef struct{ *node }

func (f funcDef) IsFriend() bool { return f.friend }

func (f funcDef) Declarator() ast.FunctionDeclarator {
	for _, c := range f.children {
		if d, ok := c.(ast.FunctionDeclarator); ok && c.Kind() == ast.KindFunctionDeclarator {
			return d
		}
	}
	return nil
}

type implicitOwner struct{ *node }

func (o implicitOwner) ImplicitNames() []ast.Name {
	return []ast.Name{Name("operator()")}
}

// Unit is a synthetic translation unit.
type Unit struct {
	*node
	path   string
	header bool
	index  ast.Index
}

// FilePath implements ast.TranslationUnit.
func (u *Unit) FilePath() string { return u.path }

// IsHeaderUnit implements ast.TranslationUnit.
func (u *Unit) IsHeaderUnit() bool { return u.header }

// Index implements ast.TranslationUnit.
func (u *Unit) Index() ast.Index {
	if u.index == nil {
		return nil
	}
	return u.index
}

// TranslationUnit returns the unit itself.
func (u *Unit) TranslationUnit() ast.TranslationUnit { return u }

// WithIndex sets the canonicalising index and returns u.
func (u *Unit) WithIndex(idx ast.Index) *Unit {
	u.index = idx
	return u
}

// TU builds a source translation unit.
func TU(path string, children ...ast.Node) *Unit {
	return newUnit(path, false, children)
}

// Header builds a header translation unit.
func Header(path string, children ...ast.Node) *Unit {
	return newUnit(path, true, children)
}

func newUnit(path string, header bool, children []ast.Node) *Unit {
	u := &Unit{path: path, header: header}
	u.node = &node{kind: ast.KindTranslationUnit, raw: path}
	attach(u, children)

	seq := 0
	var number func(n ast.Node, line int)
	number = func(n ast.Node, line int) {
		b := n.(baser).base()
		b.unit = u
		if b.id == "" {
			b.id = fmt.Sprintf("%s#%d", b.kind, seq)
		}
		if !b.noLoc && b.loc == nil {
			b.loc = &ast.FileLocation{
				Offset:    seq * 16,
				Length:    8,
				StartLine: line,
				EndLine:   line + len(b.children),
			}
		}
		seq++
		for i, c := range b.children {
			number(c, line+i+1)
		}
	}
	number(u, 1)
	return u
}

func attach(parent ast.Node, children []ast.Node) {
	p := parent.(baser).base()
	for _, c := range children {
		if c == nil {
			continue
		}
		c.(baser).base().parent = parent
		p.children = append(p.children, c)
	}
}

func newNode(kind ast.Kind, raw string) *node {
	return &node{kind: kind, raw: raw}
}

func build(wrap ast.Node, children []ast.Node) ast.Node {
	attach(wrap, children)
	return wrap
}

// Namespace builds `namespace name { children }`.
func Namespace(name string, children ...ast.Node) ast.Node {
	n := newNode(ast.KindNamespaceDefinition, "namespace "+name)
	n.name = Name(name)
	return build(named{n}, children)
}

// Struct builds a composite `struct name { members }` specifier.
func Struct(name string, members ...ast.Node) ast.Node {
	return composite(ast.TypeKeyStruct, name, members)
}

// Class builds a composite `class name { members }` specifier.
func Class(name string, members ...ast.Node) ast.Node {
	return composite(ast.TypeKeyClass, name, members)
}

// Union builds a composite `union name { members }` specifier.
func Union(name string, members ...ast.Node) ast.Node {
	return composite(ast.TypeKeyUnion, name, members)
}

func composite(key int, name string, members []ast.Node) ast.Node {
	n := newNode(ast.KindCompositeTypeSpecifier, ast.TypeKeyName(key)+" "+name+" {}")
	n.name = Name(name)
	n.typeKey = key
	return build(named{n}, members)
}

// Elaborated builds an elaborated type specifier such as `struct S`.
func Elaborated(key int, name string) ast.Node {
	n := newNode(ast.KindElaboratedTypeSpecifier, ast.TypeKeyName(key)+" "+name)
	n.name = Name(name)
	n.typeKey = key
	return build(named{n}, nil)
}

// Declaration builds a simple declaration grouping its children.
func Declaration(children ...ast.Node) ast.Node {
	n := newNode(ast.KindDeclaration, "")
	return build(plain{n}, children)
}

// DeclSpecifier builds a decl specifier that is neither composite nor elaborated.
func DeclSpecifier(raw string) ast.Node {
	n := newNode(ast.KindDeclSpecifier, raw)
	return build(plain{n}, nil)
}

// Declarator builds a plain (non-function) declarator.
func Declarator(raw string) ast.Node {
	n := newNode(ast.KindDeclarator, raw)
	n.name = Name(raw)
	return build(named{n}, nil)
}

// Field builds `int name;` as a declaration with a single declarator.
func Field(name string) ast.Node {
	return Declaration(DeclSpecifier("int"), Declarator(name))
}

// Ident builds a name node.
func Ident(name string) ast.Node {
	n := newNode(ast.KindName, name)
	n.name = Name(name)
	return build(named{n}, nil)
}

// FuncDecl builds a function declarator from a signature like `f(int x)`.
// The declarator's name is the text before the first parenthesis. When no
// children are given, the name becomes the first child.
func FuncDecl(sig string, children ...ast.Node) ast.Node {
	n := newNode(ast.KindFunctionDeclarator, sig)
	name := sig
	if i := strings.IndexByte(sig, '('); i >= 0 {
		name = sig[:i]
	}
	n.name = Name(strings.TrimSpace(name))
	if len(children) == 0 && n.name != "" {
		children = []ast.Node{Ident(string(n.name))}
	}
	return build(named{n}, children)
}

// FuncDef builds a function definition with the given declarator signature
// and body statements.
func FuncDef(sig string, body ...ast.Node) ast.Node {
	n := newNode(ast.KindFunctionDefinition, sig+" {}")
	return build(funcDef{n}, []ast.Node{
		DeclSpecifier("void"),
		FuncDecl(sig),
		Statement(body...),
	})
}

// Statement builds a compound statement.
func Statement(children ...ast.Node) ast.Node {
	n := newNode(ast.KindStatement, "{}")
	return build(plain{n}, children)
}

// Expression builds an expression without implicit names.
func Expression(children ...ast.Node) ast.Node {
	n := newNode(ast.KindExpression, "")
	return build(plain{n}, children)
}

// Call builds a call expression that owns implicit names.
func Call(children ...ast.Node) ast.Node {
	n := newNode(ast.KindExpression, "call()")
	return build(implicitOwner{n}, children)
}

// Lambda builds a lambda expression whose declarator is a function
// declarator, followed by the body statements.
func Lambda(body ...ast.Node) ast.Node {
	n := newNode(ast.KindLambdaExpression, "[](){}")
	decl := newNode(ast.KindFunctionDeclarator, "()")
	children := []ast.Node{build(named{decl}, nil), Statement(body...)}
	return build(implicitOwner{n}, children)
}

// Friend marks n as a friend declaration and returns it.
func Friend(n ast.Node) ast.Node {
	n.(baser).base().friend = true
	return n
}

// WithoutLocation strips n's location and returns it.
func WithoutLocation(n ast.Node) ast.Node {
	b := n.(baser).base()
	b.noLoc = true
	b.loc = nil
	return n
}

// WithIdentity fixes n's identity token and returns it.
func WithIdentity(n ast.Node, id string) ast.Node {
	n.(baser).base().id = id
	return n
}

// WithLocation fixes n's location and returns it.
func WithLocation(n ast.Node, loc ast.FileLocation) ast.Node {
	n.(baser).base().loc = &loc
	return n
}

// Find returns the first node in pre-order for which match returns true.
func Find(root ast.Node, match func(ast.Node) bool) ast.Node {
	if match(root) {
		return root
	}
	for _, c := range root.Children() {
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindKind returns the nth (0-based) node of the given kind in pre-order.
func FindKind(root ast.Node, kind ast.Kind, nth int) ast.Node {
	seen := 0
	return Find(root, func(n ast.Node) bool {
		if n.Kind() != kind {
			return false
		}
		if seen == nth {
			return true
		}
		seen++
		return false
	})
}
