package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/ast/asttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Roles(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Namespace("N",
			asttest.Declaration(
				asttest.Struct("S", asttest.Declaration(asttest.FuncDecl("f()"))),
			),
			asttest.Declaration(asttest.Elaborated(ast.TypeKeyClass, "C")),
			asttest.FuncDef("g()"),
			asttest.Field("x"),
		),
	)

	tests := []struct {
		kind ast.Kind
		role Role
	}{
		{ast.KindTranslationUnit, RoleTranslationUnit},
		{ast.KindNamespaceDefinition, RoleNamespace},
		{ast.KindCompositeTypeSpecifier, RoleCompositeType},
		{ast.KindElaboratedTypeSpecifier, RoleElaboratedType},
		{ast.KindFunctionDeclarator, RoleFunctionDeclarator},
		{ast.KindFunctionDefinition, RoleFunctionDefinition},
		{ast.KindDeclarator, RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			n := asttest.FindKind(tu, tt.kind, 0)
			require.NotNil(t, n)
			d, err := Describe(n)
			require.NoError(t, err)
			assert.Equal(t, tt.role, d.Role())
			assert.Equal(t, "a.cpp", d.FilePath())
			assert.Equal(t, n.IdentityToken(), d.Identity())
		})
	}
}

func TestDescribe_HeaderUnit(t *testing.T) {
	tu := asttest.Header("a.hpp")
	d, err := Describe(tu)
	require.NoError(t, err)
	assert.True(t, d.IsHeaderUnit())
	assert.False(t, d.IsCompositeType())
}

func TestDescribe_ExactlyOneFlag(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Declaration(asttest.Struct("S")),
		asttest.Declaration(asttest.Elaborated(ast.TypeKeyStruct, "T")),
		asttest.Declaration(asttest.FuncDecl("f()")),
		asttest.FuncDef("g()"),
	)
	kinds := []ast.Kind{
		ast.KindCompositeTypeSpecifier,
		ast.KindElaboratedTypeSpecifier,
		ast.KindFunctionDeclarator,
		ast.KindFunctionDefinition,
	}
	for _, k := range kinds {
		d, err := Describe(asttest.FindKind(tu, k, 0))
		require.NoError(t, err)
		flags := 0
		for _, set := range []bool{d.IsFunctionDeclarator(), d.IsFunctionDefinition(), d.IsElaboratedType(), d.IsCompositeType(), d.IsHeaderUnit()} {
			if set {
				flags++
			}
		}
		assert.Equal(t, 1, flags, "kind %s", k)
	}
}

func TestDescribe_MalformedLocation(t *testing.T) {
	tu := asttest.TU("a.cpp", asttest.WithoutLocation(asttest.Namespace("N")))
	_, err := Describe(asttest.FindKind(tu, ast.KindNamespaceDefinition, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedLocation))
}

func TestDescribe_UnsupportedKind(t *testing.T) {
	tu := asttest.TU("a.cpp", asttest.Statement())
	_, err := Describe(asttest.FindKind(tu, ast.KindStatement, 0))
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestDescribe_TypeSpecifierFacts(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Declaration(asttest.Friend(asttest.Elaborated(ast.TypeKeyClass, "Peer"))),
		asttest.Declaration(asttest.Union("U")),
	)
	friend, err := Describe(asttest.FindKind(tu, ast.KindElaboratedTypeSpecifier, 0))
	require.NoError(t, err)
	assert.True(t, friend.IsFriend())
	assert.Equal(t, ast.TypeKeyClass, friend.TypeKey())
	require.NotNil(t, friend.Binding())
	assert.Equal(t, "Peer", friend.Binding().Key())

	union, err := Describe(asttest.FindKind(tu, ast.KindCompositeTypeSpecifier, 0))
	require.NoError(t, err)
	assert.False(t, union.IsFriend())
	assert.Equal(t, ast.TypeKeyUnion, union.TypeKey())
}

func TestDescribe_CanonicalBinding(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Declaration(asttest.FuncDecl("f()")),
		asttest.FuncDef("g()"),
	).WithIndex(asttest.Index{"f": "N::f()"})

	decl, err := Describe(asttest.FindKind(tu, ast.KindFunctionDeclarator, 0))
	require.NoError(t, err)
	assert.Equal(t, "N::f()", decl.Binding().Key())

	// g has no canonical entry and falls back to the local binding.
	def, err := Describe(asttest.FindKind(tu, ast.KindFunctionDefinition, 0))
	require.NoError(t, err)
	assert.Equal(t, "g", def.Binding().Key())
}

func TestDescriptor_Equal(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Declaration(asttest.Struct("S")),
		asttest.Declaration(asttest.Struct("S")),
		asttest.Declaration(asttest.Elaborated(ast.TypeKeyStruct, "S")),
	)
	first := asttest.FindKind(tu, ast.KindCompositeTypeSpecifier, 0)
	second := asttest.FindKind(tu, ast.KindCompositeTypeSpecifier, 1)
	elaborated := asttest.FindKind(tu, ast.KindElaboratedTypeSpecifier, 0)

	a1, err := Describe(first)
	require.NoError(t, err)
	a2, err := Describe(first)
	require.NoError(t, err)
	b, err := Describe(second)
	require.NoError(t, err)
	e, err := Describe(elaborated)
	require.NoError(t, err)

	t.Run("reflexive", func(t *testing.T) {
		assert.True(t, a1.Equal(a1))
		assert.True(t, e.Equal(e))
	})
	t.Run("consistent across construction", func(t *testing.T) {
		assert.True(t, a1.Equal(a2))
		assert.True(t, a2.Equal(a1))
	})
	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, a1.Equal(b), b.Equal(a1))
		assert.Equal(t, a1.Equal(e), e.Equal(a1))
	})
	t.Run("distinct nodes differ", func(t *testing.T) {
		assert.False(t, a1.Equal(b))
		assert.False(t, a1.Equal(e))
	})
	t.Run("nil bindings", func(t *testing.T) {
		s := Synthetic("ws")
		assert.True(t, s.Equal(Synthetic("ws")))
		assert.False(t, s.Equal(Synthetic("other")))
	})
}

func TestNodeConstructors(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Namespace(""),
		asttest.Declaration(asttest.Struct("")),
		asttest.Declaration(asttest.FuncDecl("f( int   x )")),
		asttest.FuncDef("N::S::g()"),
	)

	ns, err := FromAST(asttest.FindKind(tu, ast.KindNamespaceDefinition, 0))
	require.NoError(t, err)
	assert.Equal(t, KindNamespace, ns.Kind)
	assert.Equal(t, "(anonymous)", ns.Name)

	st, err := FromAST(asttest.FindKind(tu, ast.KindCompositeTypeSpecifier, 0))
	require.NoError(t, err)
	assert.Equal(t, KindCompositeType, st.Kind)
	assert.Contains(t, st.Name, "(anonymous@")

	decl, err := FromAST(asttest.FindKind(tu, ast.KindFunctionDeclarator, 0))
	require.NoError(t, err)
	assert.Equal(t, KindFunctionDecl, decl.Kind)
	assert.Equal(t, "f( int x )", decl.Name)

	def, err := FromAST(asttest.FindKind(tu, ast.KindFunctionDefinition, 0))
	require.NoError(t, err)
	assert.Equal(t, KindFunctionDef, def.Kind)
	assert.Equal(t, "N::S::g()", def.Name)

	file, err := FromAST(tu)
	require.NoError(t, err)
	assert.Equal(t, KindFile, file.Kind)
	assert.Equal(t, "a.cpp", file.Name)

	_, err = NewNamespace(asttest.FindKind(tu, ast.KindFunctionDefinition, 0))
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestKind(t *testing.T) {
	assert.True(t, KindFunctionDecl.IsMember())
	assert.True(t, KindFunctionDef.IsMember())
	assert.True(t, KindMember.IsMember())
	assert.False(t, KindCompositeType.IsMember())
	assert.True(t, KindFile.IsRoot())

	k, ok := ParseKind("composite_type")
	assert.True(t, ok)
	assert.Equal(t, KindCompositeType, k)
	_, ok = ParseKind("bogus")
	assert.False(t, ok)
}

func TestTree_AddChild(t *testing.T) {
	tree := NewTree(NewWorkspace("ws"))
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, NoNode, tree.Parent(tree.Root()))

	a, err := tree.AddChild(tree.Root(), Node{Kind: KindNamespace, Name: "a"})
	require.NoError(t, err)
	b, err := tree.AddChild(tree.Root(), Node{Kind: KindNamespace, Name: "a"})
	require.NoError(t, err)
	c, err := tree.AddChild(a, Node{Kind: KindCompositeType, Name: "C"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "the primitive never de-duplicates")
	assert.Equal(t, []NodeID{a, b}, tree.Children(tree.Root()))
	assert.Equal(t, a, tree.Parent(c))
	assert.Equal(t, 2, tree.Depth(c))
	assert.Equal(t, "a::C", tree.QualifiedName(c))

	_, err = tree.AddChild(NodeID(99), Node{Kind: KindNamespace})
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestTree_WalkPreOrder(t *testing.T) {
	tree := NewTree(NewWorkspace("ws"))
	a, _ := tree.AddChild(tree.Root(), Node{Kind: KindNamespace, Name: "a"})
	_, _ = tree.AddChild(a, Node{Kind: KindCompositeType, Name: "A"})
	_, _ = tree.AddChild(tree.Root(), Node{Kind: KindNamespace, Name: "b"})

	var names []string
	tree.Walk(tree.Root(), func(id NodeID, depth int) bool {
		names = append(names, tree.Node(id).Name)
		return true
	})
	assert.Equal(t, []string{"ws", "a", "A", "b"}, names)

	names = nil
	tree.Walk(tree.Root(), func(id NodeID, depth int) bool {
		names = append(names, tree.Node(id).Name)
		return depth == 0
	})
	assert.Equal(t, []string{"ws", "a", "b"}, names)
}

func TestTree_MarshalJSON(t *testing.T) {
	tree := NewTree(NewWorkspace("ws"))
	_, _ = tree.AddChild(tree.Root(), Node{Kind: KindNamespace, Name: "a"})

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "workspace", out["kind"])
	children := out["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "a", children[0].(map[string]any)["name"])
}

func TestStructuralBuilder(t *testing.T) {
	tu := asttest.TU("a.cpp",
		asttest.Declaration(asttest.Elaborated(ast.TypeKeyStruct, "S")),
		asttest.Declaration(asttest.Struct("S")),
	)
	elab, err := FromAST(asttest.FindKind(tu, ast.KindElaboratedTypeSpecifier, 0))
	require.NoError(t, err)
	def, err := FromAST(asttest.FindKind(tu, ast.KindCompositeTypeSpecifier, 0))
	require.NoError(t, err)

	t.Run("definition upgrades elaborated sibling", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		first, err := b.AddChild(tree, tree.Root(), elab)
		require.NoError(t, err)
		second, err := b.AddChild(tree, tree.Root(), def)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, tree.Len())
		assert.True(t, tree.Node(first).Descriptor.IsCompositeType())
		assert.True(t, tree.Node(first).Descriptor.Equal(def.Descriptor))
	})

	t.Run("elaboration keeps definition", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		first, _ := b.AddChild(tree, tree.Root(), def)
		second, _ := b.AddChild(tree, tree.Root(), elab)
		assert.Equal(t, first, second)
		assert.True(t, tree.Node(first).Descriptor.IsCompositeType())
	})

	t.Run("self reference returns enclosing type", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		s, _ := b.AddChild(tree, tree.Root(), def)
		inner, err := b.AddChild(tree, s, elab)
		require.NoError(t, err)
		assert.Equal(t, s, inner)
		assert.Equal(t, 2, tree.Len())
	})

	t.Run("functions never merge", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		f := Node{Kind: KindFunctionDecl, Name: "f()"}
		x, _ := b.AddChild(tree, tree.Root(), f)
		y, _ := b.AddChild(tree, tree.Root(), f)
		assert.NotEqual(t, x, y)
	})

	t.Run("revisited function returns existing node", func(t *testing.T) {
		tu := asttest.TU("a.cpp",
			asttest.Declaration(asttest.FuncDecl("f()")),
			asttest.Declaration(asttest.FuncDecl("f()")),
		)
		first, err := FromAST(asttest.FindKind(tu, ast.KindFunctionDeclarator, 0))
		require.NoError(t, err)
		again, err := FromAST(asttest.FindKind(tu, ast.KindFunctionDeclarator, 0))
		require.NoError(t, err)
		redeclared, err := FromAST(asttest.FindKind(tu, ast.KindFunctionDeclarator, 1))
		require.NoError(t, err)

		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		x, _ := b.AddChild(tree, tree.Root(), first)
		y, _ := b.AddChild(tree, tree.Root(), again)
		z, _ := b.AddChild(tree, tree.Root(), redeclared)
		assert.Equal(t, x, y)
		assert.NotEqual(t, x, z)
		assert.Equal(t, 3, tree.Len())
	})

	t.Run("append builder keeps revisits", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		x, _ := AppendBuilder{}.AddChild(tree, tree.Root(), def)
		y, _ := AppendBuilder{}.AddChild(tree, tree.Root(), def)
		assert.NotEqual(t, x, y)
	})

	t.Run("namespace and type with one name stay apart", func(t *testing.T) {
		tree := NewTree(NewWorkspace("ws"))
		b := StructuralBuilder{}
		ns, _ := b.AddChild(tree, tree.Root(), Node{Kind: KindNamespace, Name: "S"})
		st, _ := b.AddChild(tree, tree.Root(), def)
		assert.NotEqual(t, ns, st)
	})
}

func TestBuilderFor(t *testing.T) {
	b, ok := BuilderFor("")
	assert.True(t, ok)
	assert.IsType(t, StructuralBuilder{}, b)

	b, ok = BuilderFor("append")
	assert.True(t, ok)
	assert.IsType(t, AppendBuilder{}, b)

	_, ok = BuilderFor("nope")
	assert.False(t, ok)
}
