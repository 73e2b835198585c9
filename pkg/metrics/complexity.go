package metrics

import (
	"strings"

	"github.com/panbanda/metriculator/pkg/model"
	"github.com/panbanda/metriculator/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionMetrics holds the measurements of one function definition.
type FunctionMetrics struct {
	Name       string   `json:"name"`
	Qualified  string   `json:"qualified"`
	File       string   `json:"file"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Cyclomatic uint32   `json:"cyclomatic"`
	Cognitive  uint32   `json:"cognitive"`
	MaxNesting int      `json:"max_nesting"`
	Lines      int      `json:"lines"`
	LSLOC      int      `json:"lsloc"`
	Parameters int      `json:"parameters"`
	Friend     bool     `json:"friend,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// Complexity measures every function definition the traversal leaves. The
// function body is located in the parse result by the definition's byte
// range.
type Complexity struct {
	result    *parser.ParseResult
	Functions []FunctionMetrics
}

// NewComplexity creates a complexity listener for one parsed file.
func NewComplexity(result *parser.ParseResult) *Complexity {
	return &Complexity{result: result}
}

func (c *Complexity) VisitingType(*model.Tree, model.NodeID) error { return nil }
func (c *Complexity) LeavingType(*model.Tree, model.NodeID) error  { return nil }

// LeavingFunction records metrics for definitions. Declarations are ignored.
func (c *Complexity) LeavingFunction(t *model.Tree, id model.NodeID) error {
	n := t.Node(id)
	if n.Kind != model.KindFunctionDef {
		return nil
	}
	d := n.Descriptor
	fm := FunctionMetrics{
		Name:       n.Name,
		Qualified:  t.QualifiedName(id),
		File:       d.FilePath(),
		StartLine:  d.StartLine(),
		EndLine:    d.EndLine(),
		Cyclomatic: 1,
		Lines:      d.EndLine() - d.StartLine() + 1,
		Friend:     d.IsFriend(),
	}

	start := uint32(d.Offset())
	def := parser.FindByRange(c.result.Tree.RootNode(), "function_definition", start, start+uint32(d.Length()))
	if def != nil {
		fm.Parameters = CountParameters(def, c.result.Source)
		if body := def.ChildByFieldName("body"); body != nil {
			src := c.result.Source
			fm.Cyclomatic = 1 + CountDecisionPoints(body, src)
			fm.Cognitive = CalculateCognitiveComplexity(body, src, 0)
			fm.MaxNesting = calculateMaxNesting(body, 0)
			fm.LSLOC = CountLogicalLines(body)
		}
	}

	c.Functions = append(c.Functions, fm)
	return nil
}

var decisionTypes = makeSet([]string{
	"if_statement",
	"while_statement",
	"for_statement",
	"for_range_loop",
	"do_statement",
	"case_statement",
	"catch_clause",
	"conditional_expression",
})

// CountDecisionPoints counts branching constructs for cyclomatic complexity.
// Each && and || adds a path.
func CountDecisionPoints(node *sitter.Node, source []byte) uint32 {
	var count uint32
	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if decisionTypes[nodeType] {
			count++
		}
		if nodeType == "binary_expression" {
			switch getOperator(n) {
			case "&&", "||", "and", "or":
				count++
			}
		}
		return true
	})
	return count
}

func getOperator(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := range int(node.ChildCount()) {
		if child := node.Child(i); !child.IsNamed() {
			return child.Type()
		}
	}
	return ""
}

var (
	cognitiveNesting = makeSet([]string{
		"if_statement", "while_statement", "for_statement", "for_range_loop",
		"do_statement", "switch_statement", "try_statement", "catch_clause",
	})
	cognitiveFlat = makeSet([]string{
		"else_clause", "break_statement", "continue_statement", "goto_statement",
	})
)

// CalculateCognitiveComplexity adds one for every control construct plus a
// penalty for how deeply it is nested.
func CalculateCognitiveComplexity(node *sitter.Node, source []byte, depth int) uint32 {
	var complexity uint32

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childType := child.Type()

		switch {
		case cognitiveNesting[childType]:
			complexity += 1 + uint32(depth)
			complexity += CalculateCognitiveComplexity(child, source, depth+1)
		case cognitiveFlat[childType]:
			complexity += 1 + uint32(depth)
			complexity += CalculateCognitiveComplexity(child, source, depth)
		case childType == "lambda_expression":
			complexity += CalculateCognitiveComplexity(child, source, depth+1)
		default:
			complexity += CalculateCognitiveComplexity(child, source, depth)
		}
	}

	return complexity
}

var nestingTypes = makeSet([]string{
	"if_statement", "while_statement", "for_statement", "for_range_loop",
	"do_statement", "switch_statement", "try_statement", "lambda_expression",
})

func calculateMaxNesting(node *sitter.Node, currentDepth int) int {
	maxDepth := currentDepth

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		depth := currentDepth
		if nestingTypes[child.Type()] {
			depth++
		}
		if childMax := calculateMaxNesting(child, depth); childMax > maxDepth {
			maxDepth = childMax
		}
	}

	return maxDepth
}

// CountLogicalLines counts statements and local declarations.
func CountLogicalLines(body *sitter.Node) int {
	count := 0
	parser.WalkTyped(body, nil, func(n *sitter.Node, nodeType string, _ []byte) bool {
		switch {
		case nodeType == "compound_statement":
		case nodeType == "declaration", nodeType == "for_range_loop":
			count++
		case strings.HasSuffix(nodeType, "_statement"):
			count++
		}
		return nodeType != "lambda_expression"
	})
	return count
}

// CountParameters returns the number of parameters of a function definition
// or declarator. `(void)` has none; a variadic ellipsis counts as one.
func CountParameters(fn *sitter.Node, source []byte) int {
	d := fn
	for d != nil && d.Type() != "function_declarator" {
		next := d.ChildByFieldName("declarator")
		if next == nil && d.Type() == "reference_declarator" && d.NamedChildCount() > 0 {
			next = d.NamedChild(int(d.NamedChildCount()) - 1)
		}
		d = next
	}
	if d == nil {
		return 0
	}
	params := d.ChildByFieldName("parameters")
	if params == nil {
		return 0
	}

	var kinds []string
	for i := range int(params.ChildCount()) {
		p := params.Child(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration", "...":
			kinds = append(kinds, p.Type())
		}
	}
	if len(kinds) == 1 && kinds[0] == "parameter_declaration" &&
		strings.TrimSpace(parser.GetNodeText(params.NamedChild(0), source)) == "void" {
		return 0
	}
	return len(kinds)
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
