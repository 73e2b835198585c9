package metrics

import (
	"testing"

	"github.com/panbanda/metriculator/pkg/ast/treesitter"
	"github.com/panbanda/metriculator/pkg/model"
	"github.com/panbanda/metriculator/pkg/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapeSource = `namespace geo {
class Shape {
 public:
  int sides;
  double area() const;
  friend void dump(const Shape &s);
};

double Shape::area() const {
  if (sides > 3 && sides < 10) {
    for (int i = 0; i < sides; i++) {
      if (i % 2) {
        continue;
      }
    }
  } else {
    return 0.0;
  }
  return 1.0;
}
}

void orphan(int a, int b);
int run(void) { return 0; }
int add(int a, int b) { return a + b; }
`

type collected struct {
	tree       *model.Tree
	structure  *Structure
	complexity *Complexity
	linkage    *Linkage
}

func analyze(t *testing.T, path, source string) collected {
	t.Helper()
	p := treesitter.New()
	defer p.Close()

	tu, err := p.ParseSource(path, []byte(source))
	require.NoError(t, err)
	unit := tu.(*treesitter.Unit)

	root, err := model.NewFile(unit)
	require.NoError(t, err)
	tree := model.NewTree(root)

	c := collected{
		tree:       tree,
		structure:  NewStructure(),
		complexity: NewComplexity(unit.Result()),
		linkage:    NewLinkage(),
	}
	v := traversal.New(tree,
		traversal.WithMembers(),
		traversal.WithListeners(c.structure, c.complexity, c.linkage),
	)
	require.NoError(t, v.Traverse(unit))
	c.structure.Finish(tree, tree.Root())
	return c
}

func function(t *testing.T, fns []FunctionMetrics, qualified string) FunctionMetrics {
	t.Helper()
	for _, fm := range fns {
		if fm.Qualified == qualified {
			return fm
		}
	}
	require.Failf(t, "function not found", "%s", qualified)
	return FunctionMetrics{}
}

func TestStructure(t *testing.T) {
	c := analyze(t, "shape.cpp", shapeSource)
	s := c.structure

	assert.Equal(t, 1, s.Namespaces)
	assert.Equal(t, 1, s.Types)
	assert.Equal(t, 3, s.FunctionDecls)
	assert.Equal(t, 3, s.FunctionDefs)
	assert.Equal(t, 1, s.Friends)
	assert.Equal(t, 3, s.MaxDepth)

	require.Len(t, s.TypeDetails, 1)
	shape := s.TypeDetails[0]
	assert.Equal(t, "Shape", shape.Name)
	assert.Equal(t, "geo::Shape", shape.Qualified)
	assert.Equal(t, "class", shape.TypeKey)
	assert.Equal(t, 2, shape.Functions)
	assert.Equal(t, 1, shape.Members)
	assert.Equal(t, 2, shape.Line)
}

func TestComplexity(t *testing.T) {
	c := analyze(t, "shape.cpp", shapeSource)
	require.Len(t, c.complexity.Functions, 3)

	area := function(t, c.complexity.Functions, "geo::Shape::area() const")
	assert.Equal(t, "shape.cpp", area.File)
	assert.Equal(t, 9, area.StartLine)
	assert.Equal(t, 20, area.EndLine)
	assert.Equal(t, 12, area.Lines)
	assert.Equal(t, uint32(5), area.Cyclomatic)
	assert.GreaterOrEqual(t, area.Cognitive, uint32(10))
	assert.Equal(t, 3, area.MaxNesting)
	assert.Equal(t, 7, area.LSLOC)
	assert.Equal(t, 0, area.Parameters)

	run := function(t, c.complexity.Functions, "run(void)")
	assert.Equal(t, uint32(1), run.Cyclomatic)
	assert.Equal(t, 0, run.Parameters)
	assert.Equal(t, 1, run.LSLOC)

	add := function(t, c.complexity.Functions, "add(int a, int b)")
	assert.Equal(t, 2, add.Parameters)
	assert.Equal(t, 0, add.MaxNesting)
}

func TestComplexity_LambdaBodyCountsTowardsEnclosing(t *testing.T) {
	src := `void each(int n) {
  auto f = [](int x) { if (x) { return 1; } return 0; };
  while (n--) { f(n); }
}
`
	c := analyze(t, "l.cpp", src)
	require.Len(t, c.complexity.Functions, 1)

	fm := c.complexity.Functions[0]
	assert.Equal(t, uint32(3), fm.Cyclomatic)
	assert.Equal(t, 2, fm.MaxNesting)
	assert.Equal(t, 1, fm.Parameters)
}

func TestLinkage(t *testing.T) {
	c := analyze(t, "shape.cpp", shapeSource)
	l := c.linkage

	assert.Equal(t, []string{"geo::Shape::dump(const Shape&)", "orphan(int,int)"}, l.Undefined())
	assert.Equal(t, uint64(1), l.DefinedCount())

	var decl model.NodeID = model.NoNode
	c.tree.Walk(c.tree.Root(), func(id model.NodeID, _ int) bool {
		if n := c.tree.Node(id); n.Kind == model.KindFunctionDecl && n.Name == "area() const" {
			decl = id
		}
		return true
	})
	require.NotEqual(t, model.NoNode, decl)
	assert.True(t, l.Defined(decl))

	def, ok := l.Definition(decl)
	require.True(t, ok)
	assert.Equal(t, model.KindFunctionDef, c.tree.Node(def).Kind)
	assert.Equal(t, "Shape::area() const", c.tree.Node(def).Name)

	assert.False(t, l.Defined(model.NoNode))
	_, ok = l.Definition(model.NodeID(999))
	assert.False(t, ok)
}

func TestLinkage_DefinitionBeforeDeclaration(t *testing.T) {
	c := analyze(t, "d.cpp", "void f() {}\nvoid f();\n")

	assert.Empty(t, c.linkage.Undefined())
	assert.Equal(t, uint64(1), c.linkage.DefinedCount())
}

func TestLinkage_ConversionOperator(t *testing.T) {
	c := analyze(t, "cast.cpp", "struct S {\n  operator int() const;\n};\nS::operator int() const { return 0; }\n")

	assert.Empty(t, c.linkage.Undefined())
	assert.Equal(t, uint64(1), c.linkage.DefinedCount())
}

func TestThresholds_CheckFunction(t *testing.T) {
	th := Thresholds{Cyclomatic: 5, Cognitive: 10, Nesting: 2, Parameters: 3}

	tests := []struct {
		name  string
		fm    FunctionMetrics
		rules []string
		sev   []Severity
	}{
		{
			name: "within limits",
			fm:   FunctionMetrics{Cyclomatic: 5, Cognitive: 10, MaxNesting: 2, Parameters: 3},
		},
		{
			name:  "warning",
			fm:    FunctionMetrics{Cyclomatic: 6, Cognitive: 1},
			rules: []string{"cyclomatic"},
			sev:   []Severity{SeverityWarning},
		},
		{
			name:  "error past double",
			fm:    FunctionMetrics{Cyclomatic: 1, Cognitive: 21, MaxNesting: 3},
			rules: []string{"cognitive", "nesting"},
			sev:   []Severity{SeverityError, SeverityWarning},
		},
		{
			name:  "parameters",
			fm:    FunctionMetrics{Parameters: 7},
			rules: []string{"parameters"},
			sev:   []Severity{SeverityError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := tt.fm
			fm.Qualified = "N::f()"
			fm.File = "f.cpp"
			fm.StartLine = 3

			vs := th.CheckFunction(&fm)
			require.Len(t, vs, len(tt.rules))
			assert.Equal(t, tt.rules, fm.Violations)
			for i, v := range vs {
				assert.Equal(t, tt.rules[i], v.Rule)
				assert.Equal(t, tt.sev[i], v.Severity)
				assert.Equal(t, "f.cpp", v.File)
				assert.Equal(t, 3, v.Line)
				assert.Equal(t, "N::f()", v.Scope)
			}
		})
	}
}

func TestThresholds_Disabled(t *testing.T) {
	fm := FunctionMetrics{Cyclomatic: 100, Cognitive: 100, MaxNesting: 100, Parameters: 100}
	assert.Empty(t, Thresholds{}.CheckFunction(&fm))
	assert.Empty(t, Thresholds{}.CheckType("a.cpp", TypeMetrics{Members: 100}))
}

func TestThresholds_CheckType(t *testing.T) {
	th := DefaultThresholds()
	tm := TypeMetrics{Qualified: "big::Type", Members: 25, Functions: 10, Line: 4}

	vs := th.CheckType("t.hpp", tm)
	require.Len(t, vs, 1)
	assert.Equal(t, "members_per_type", vs[0].Rule)
	assert.Equal(t, 35, vs[0].Value)
	assert.Equal(t, SeverityWarning, vs[0].Severity)
	assert.Equal(t, "t.hpp", vs[0].File)

	assert.Empty(t, th.CheckType("t.hpp", TypeMetrics{Members: 30}))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	fns := []FunctionMetrics{
		{Cyclomatic: 4, Cognitive: 2, Parameters: 1},
		{Cyclomatic: 1, Cognitive: 0, Parameters: 0},
		{Cyclomatic: 1, Cognitive: 0, Parameters: 2},
		{Cyclomatic: 2, Cognitive: 6, Parameters: 3},
	}
	s := Summarize(fns)

	assert.Equal(t, 4, s.Functions)
	assert.InDelta(t, 2.0, s.Cyclomatic.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.Cyclomatic.P50, 1e-9)
	assert.InDelta(t, 4.0, s.Cyclomatic.P90, 1e-9)
	assert.InDelta(t, 4.0, s.Cyclomatic.Max, 1e-9)
	assert.InDelta(t, 6.0, s.Cognitive.Max, 1e-9)
	assert.InDelta(t, 1.5, s.Parameters.Mean, 1e-9)

	// input order is untouched
	assert.Equal(t, uint32(4), fns[0].Cyclomatic)
}
