package treesitter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/model"
	"github.com/panbanda/metriculator/pkg/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, path, source string) *Unit {
	t.Helper()
	p := New()
	t.Cleanup(p.Close)
	tu, err := p.ParseSource(path, []byte(source))
	require.NoError(t, err)
	u, ok := tu.(*Unit)
	require.True(t, ok)
	return u
}

func build(t *testing.T, u *Unit, opts ...traversal.Option) (*model.Tree, *traversal.Recorder) {
	t.Helper()
	root, err := model.NewFile(u)
	require.NoError(t, err)
	tree := model.NewTree(root)
	rec := &traversal.Recorder{}
	v := traversal.New(tree, append([]traversal.Option{traversal.WithListeners(rec)}, opts...)...)
	require.NoError(t, v.Traverse(u))
	return tree, rec
}

func shape(tree *model.Tree) []string {
	var out []string
	tree.Walk(tree.Root(), func(id model.NodeID, depth int) bool {
		if depth == 0 {
			return true
		}
		n := tree.Node(id)
		out = append(out, strings.Repeat("  ", depth-1)+n.Kind.String()+":"+n.Name)
		return true
	})
	return out
}

func find(t *testing.T, tree *model.Tree, kind model.Kind, name string) model.Node {
	t.Helper()
	var found model.NodeID = model.NoNode
	tree.Walk(tree.Root(), func(id model.NodeID, _ int) bool {
		if n := tree.Node(id); n.Kind == kind && n.Name == name {
			found = id
		}
		return found == model.NoNode
	})
	require.NotEqual(t, model.NoNode, found, "%s %q not found", kind, name)
	return tree.Node(found)
}

func TestProviderImplementsInterface(t *testing.T) {
	var _ ast.Provider = (*Provider)(nil)
}

func TestProvider_NamespaceStructScenario(t *testing.T) {
	src := `namespace N {
struct S {
  void f();
};
}
void N::S::f() {}
`
	u := parse(t, "n.cpp", src)
	tree, rec := build(t, u)

	assert.Equal(t, []string{
		"namespace:N",
		"  composite_type:S",
		"    function_decl:f()",
		"function_def:N::S::f()",
	}, shape(tree))
	assert.Equal(t, []string{
		"visit S",
		"leave f() [decl]",
		"leave S",
		"leave N::S::f() [def]",
	}, rec.Strings())

	decl := find(t, tree, model.KindFunctionDecl, "f()")
	def := find(t, tree, model.KindFunctionDef, "N::S::f()")
	require.NotNil(t, decl.Descriptor.Binding())
	assert.Equal(t, "N::S::f()", decl.Descriptor.Binding().Key())
	assert.True(t, ast.SameBinding(decl.Descriptor.Binding(), def.Descriptor.Binding()))
	assert.Equal(t, model.RoleFunctionDefinition, def.Descriptor.Role())
	assert.Equal(t, 6, def.Descriptor.StartLine())
}

func TestProvider_ElaboratedThenDefinition(t *testing.T) {
	u := parse(t, "s.cpp", "struct S;\nstruct S { int x; };\n")
	tree, rec := build(t, u)

	assert.Equal(t, []string{"composite_type:S"}, shape(tree))
	s := find(t, tree, model.KindCompositeType, "S")
	assert.True(t, s.Descriptor.IsCompositeType())
	assert.Equal(t, ast.TypeKeyStruct, s.Descriptor.TypeKey())
	assert.Equal(t, []string{"visit S", "leave S"}, rec.Strings())
}

func TestProvider_Members(t *testing.T) {
	u := parse(t, "m.cpp", "class C { int a; double b; void m(); };\n")
	tree, _ := build(t, u, traversal.WithMembers())

	assert.Equal(t, []string{
		"composite_type:C",
		"  member:a",
		"  member:b",
		"  function_decl:m()",
	}, shape(tree))
	assert.Equal(t, ast.TypeKeyClass, find(t, tree, model.KindCompositeType, "C").Descriptor.TypeKey())
}

func TestProvider_Friends(t *testing.T) {
	src := `class A {
  friend class B;
  friend void g(int);
};
`
	u := parse(t, "f.cpp", src)
	tree, _ := build(t, u)

	b := find(t, tree, model.KindCompositeType, "B")
	assert.True(t, b.Descriptor.IsElaboratedType())
	assert.True(t, b.Descriptor.IsFriend())
	assert.Equal(t, ast.TypeKeyClass, b.Descriptor.TypeKey())

	g := find(t, tree, model.KindFunctionDecl, "g(int)")
	assert.True(t, g.Descriptor.IsFriend())
	assert.False(t, find(t, tree, model.KindCompositeType, "A").Descriptor.IsFriend())
}

func TestProvider_LambdaDoesNotOpenFunction(t *testing.T) {
	src := `void h() {
  auto l = [](int x) { return x + 1; };
  int local(int);
  l(1);
}
`
	u := parse(t, "l.cpp", src)
	tree, rec := build(t, u)

	assert.Equal(t, []string{"function_def:h()"}, shape(tree))
	assert.Equal(t, []string{"leave h() [def]"}, rec.Strings())
}

func TestProvider_PointerReturnDeclarator(t *testing.T) {
	u := parse(t, "p.cpp", "int *make(int n);\nconst char &ref();\n")
	tree, rec := build(t, u)

	assert.Equal(t, []string{"function_decl:make(int n)", "function_decl:ref()"}, shape(tree))
	assert.Equal(t, []string{"leave make(int n) [decl]", "leave ref() [decl]"}, rec.Strings())
}

func TestProvider_ConversionOperators(t *testing.T) {
	src := `struct S {
  operator int() const;
  operator bool() const { return true; }
};
S::operator int() const { return 0; }
`
	u := parse(t, "cast.cpp", src)
	tree, rec := build(t, u)

	assert.Equal(t, []string{
		"composite_type:S",
		"  function_decl:operator int() const",
		"  function_def:operator bool() const",
		"function_def:S::operator int() const",
	}, shape(tree))
	assert.Equal(t, 1, tree.Count(model.KindFunctionDecl))
	assert.Equal(t, []string{
		"visit S",
		"leave operator int() const [decl]",
		"leave operator bool() const [def]",
		"leave S",
		"leave S::operator int() const [def]",
	}, rec.Strings())

	assert.Contains(t, u.Bindings().Keys(), "S::operator int()")
	assert.Contains(t, u.Bindings().Keys(), "S::operator bool()")

	decl := find(t, tree, model.KindFunctionDecl, "operator int() const")
	def := find(t, tree, model.KindFunctionDef, "S::operator int() const")
	require.NotNil(t, decl.Descriptor.Binding())
	require.NotNil(t, def.Descriptor.Binding())
	assert.Equal(t, "S::operator int()", def.Descriptor.Binding().Key())
	assert.True(t, ast.SameBinding(decl.Descriptor.Binding(), def.Descriptor.Binding()))
}

func TestIndex_ParameterSuffixes(t *testing.T) {
	src := `void p(const char *s, int n, ...);
void q(void);
void r(int &a, double b[]);
namespace N { struct S { void f(); }; }
`
	u := parse(t, "i.cpp", src)

	keys := u.Bindings().Keys()
	assert.Contains(t, keys, "p(const char*,int,...)")
	assert.Contains(t, keys, "q()")
	assert.Contains(t, keys, "r(int&,double[])")
	assert.Contains(t, keys, "N::S")
	assert.Contains(t, keys, "N::S::f()")
	assert.NotContains(t, keys, "N")
}

func TestIndex_AdaptBinding(t *testing.T) {
	idx := NewIndex()
	idx.add(newBinding([]string{"N", "S"}, "f", "()"))
	idx.add(newBinding(nil, "N::S::g", "()"))

	assert.Equal(t, 1, idx.Len())

	got := idx.AdaptBinding(newBinding([]string{"N"}, "S::f", "()"))
	require.NotNil(t, got)
	assert.Equal(t, "N::S::f()", got.Key())

	got = idx.AdaptBinding(newBinding([]string{"M"}, "::N::S::f", "()"))
	require.NotNil(t, got)
	assert.Equal(t, "N::S::f()", got.Key())

	assert.Nil(t, idx.AdaptBinding(newBinding(nil, "h", "()")))
	assert.Nil(t, idx.AdaptBinding(nil))
}

func TestProvider_HeaderUnit(t *testing.T) {
	u := parse(t, "include/api.h", "struct Api { int v; };\n")

	assert.True(t, u.IsHeaderUnit())
	assert.Equal(t, "include/api.h", u.FilePath())
	root, err := model.NewFile(u)
	require.NoError(t, err)
	assert.True(t, root.Descriptor.IsHeaderUnit())
	assert.Equal(t, model.RoleHeaderUnit, root.Descriptor.Role())
}

func TestProvider_CSource(t *testing.T) {
	u := parse(t, "main.c", "struct point { int x; int y; };\nint main(void) { return 0; }\n")
	tree, _ := build(t, u)

	assert.Equal(t, []string{"composite_type:point", "function_def:main(void)"}, shape(tree))
	assert.False(t, u.HasErrors())
}

func TestProvider_UnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseSource("main.go", []byte("package main\n"))
	assert.ErrorIs(t, err, ast.ErrUnsupportedLanguage)

	_, err = p.Parse("README.md")
	assert.ErrorIs(t, err, ast.ErrUnsupportedLanguage)
	assert.Equal(t, ast.LangUnknown, p.Language("README.md"))
	assert.Equal(t, ast.LangCPP, p.Language("a.hpp"))
}

func TestProvider_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.cc")
	require.NoError(t, os.WriteFile(path, []byte("namespace { class W {}; }\n"), 0644))

	p := New()
	defer p.Close()

	tu, err := p.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, path, tu.FilePath())
	assert.False(t, tu.IsHeaderUnit())

	tree, _ := build(t, tu.(*Unit))
	assert.Equal(t, []string{"namespace:(anonymous)", "  composite_type:W"}, shape(tree))
}

func TestProvider_StableIdentity(t *testing.T) {
	src := "struct S { void f(); };\n"
	a := parse(t, "s.cpp", src)
	b := parse(t, "s.cpp", src)
	c := parse(t, "other.cpp", src)

	assert.Equal(t, a.IdentityToken(), b.IdentityToken())
	assert.NotEqual(t, a.IdentityToken(), c.IdentityToken())

	s := a.Children()[0]
	assert.Equal(t, ast.KindCompositeTypeSpecifier, s.Kind())
	loc := s.FileLocation()
	require.NotNil(t, loc)
	assert.Equal(t, 0, loc.Offset)
	assert.Equal(t, len("struct S { void f(); }"), loc.Length)
	assert.Equal(t, 1, loc.StartLine)
	assert.Equal(t, "struct S { void f(); }", s.(named).RawSignature())
}
