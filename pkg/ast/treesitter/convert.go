package treesitter

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

var typeKeys = map[string]int{
	"class":            ast.TypeKeyClass,
	"struct":           ast.TypeKeyStruct,
	"union":            ast.TypeKeyUnion,
	"enum":             ast.TypeKeyEnum,
	"class_specifier":  ast.TypeKeyClass,
	"struct_specifier": ast.TypeKeyStruct,
	"union_specifier":  ast.TypeKeyUnion,
	"enum_specifier":   ast.TypeKeyEnum,
}

// bodyTypes open a new lexical scope for the names declared inside them.
var bodyTypes = map[string]bool{
	"declaration_list":       true,
	"field_declaration_list": true,
	"compound_statement":     true,
	"field_initializer_list": true,
}

var declarationTypes = map[string]bool{
	"declaration":                    true,
	"field_declaration":              true,
	"parameter_declaration":          true,
	"optional_parameter_declaration": true,
	"template_declaration":           true,
	"type_definition":                true,
	"alias_declaration":              true,
	"using_declaration":              true,
	"linkage_specification":          true,
}

var declaratorTypes = map[string]bool{
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"init_declarator":          true,
	"parenthesized_declarator": true,
}

var nameTypes = map[string]bool{
	"identifier":           true,
	"field_identifier":     true,
	"namespace_identifier": true,
	"type_identifier":      true,
	"qualified_identifier": true,
	"destructor_name":      true,
	"operator_name":        true,
	"template_function":    true,
	"template_method":      true,
}

var declSpecifierTypes = map[string]bool{
	"primitive_type":              true,
	"sized_type_specifier":        true,
	"template_type":               true,
	"placeholder_type_specifier":  true,
	"decltype":                    true,
	"type_qualifier":              true,
	"storage_class_specifier":     true,
	"virtual":                     true,
	"explicit_function_specifier": true,
}

// Convert builds the ast view of a C or C++ parse result. Only named
// tree-sitter nodes are kept; pointer and reference declarators that wrap a
// function declarator are spliced out so that the function declarator hangs
// directly off its definition or declaration.
func Convert(result *parser.ParseResult) *Unit {
	root := result.Tree.RootNode()
	u := &Unit{
		result: result,
		index:  NewIndex(),
		header: parser.IsHeader(result.Path),
	}
	c := &converter{unit: u, source: result.Source}
	u.node = c.newNode(root, ast.KindTranslationUnit)
	c.children(root, u, "")
	return u
}

type converter struct {
	unit   *Unit
	source []byte
	scope  []string
	friend bool
}

func identity(path, nodeType string, start, end uint32) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s\x00%s\x00%d\x00%d", path, nodeType, start, end)))
}

func (c *converter) newNode(ts *sitter.Node, kind ast.Kind) *node {
	start, end := ts.StartByte(), ts.EndByte()
	return &node{
		kind:   kind,
		tsType: ts.Type(),
		ts:     ts,
		unit:   c.unit,
		loc: ast.FileLocation{
			Offset:    int(start),
			Length:    int(end - start),
			StartLine: int(ts.StartPoint().Row) + 1,
			EndLine:   int(ts.EndPoint().Row) + 1,
		},
		id: identity(c.unit.result.Path, ts.Type(), start, end),
	}
}

func (c *converter) text(ts *sitter.Node) string {
	return strings.Join(strings.Fields(parser.GetNodeText(ts, c.source)), " ")
}

func attach(parent, child ast.Node) {
	child.(baser).base().parent = parent
	p := parent.(baser).base()
	p.children = append(p.children, child)
}

// children converts the named children of ts under parent. When scopeName is
// set, names declared inside body children are qualified by it.
func (c *converter) children(ts *sitter.Node, parent ast.Node, scopeName string) {
	parentType := parent.(baser).base().tsType
	for i := range int(ts.NamedChildCount()) {
		child := ts.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if wrapsFunctionDeclarator(child) {
			c.children(child, parent, "")
			continue
		}

		if bodyTypes[child.Type()] {
			savedFriend := c.friend
			c.friend = false
			if scopeName != "" {
				c.scope = append(c.scope, scopeName)
			}
			attach(parent, c.convert(child, parentType))
			if scopeName != "" {
				c.scope = c.scope[:len(c.scope)-1]
			}
			c.friend = savedFriend
			continue
		}

		attach(parent, c.convert(child, parentType))
	}
}

func (c *converter) convert(ts *sitter.Node, parentType string) ast.Node {
	typ := ts.Type()

	if parentType == "function_definition" || declarationTypes[parentType] {
		if cast := castOperator(ts); cast != nil {
			return c.castDeclarator(ts, cast)
		}
	}

	switch typ {
	case "namespace_definition":
		n := c.newNode(ts, ast.KindNamespaceDefinition)
		text := c.text(ts.ChildByFieldName("name"))
		scopeName := "(anonymous)"
		if text != "" {
			n.name = &name{text: text}
			scopeName = text
		}
		w := named{n}
		c.children(ts, w, scopeName)
		return w

	case "function_definition":
		n := c.newNode(ts, ast.KindFunctionDefinition)
		n.friend = c.friend
		w := funcDef{n}
		scopeName := declaratorName(ts, c.source)
		if scopeName == "" {
			scopeName = fmt.Sprintf("(function@%d)", ts.StartByte())
		}
		c.children(ts, w, scopeName)
		return w

	case "function_declarator":
		n := c.newNode(ts, ast.KindFunctionDeclarator)
		n.friend = c.friend
		if text := declaratorName(ts, c.source); text != "" {
			b := newBinding(c.scope, text, paramSuffix(ts.ChildByFieldName("parameters"), c.source))
			n.name = &name{text: text, bind: b}
			c.unit.index.add(b)
		}
		w := named{n}
		c.children(ts, w, "")
		return w

	case "abstract_function_declarator":
		kind := ast.KindOther
		if parentType == "lambda_expression" {
			kind = ast.KindFunctionDeclarator
		}
		w := named{c.newNode(ts, kind)}
		c.children(ts, w, "")
		return w

	case "class_specifier", "struct_specifier", "union_specifier":
		return c.typeSpecifier(ts)

	case "enum_specifier":
		if ts.ChildByFieldName("body") == nil {
			return c.typeSpecifier(ts)
		}
		w := plain{c.newNode(ts, ast.KindDeclSpecifier)}
		c.children(ts, w, "")
		return w

	case "lambda_expression":
		n := c.newNode(ts, ast.KindLambdaExpression)
		w := implicitOwner{node: n, implicit: []ast.Name{&name{text: "(closure)"}, &name{text: "operator()"}}}
		c.children(ts, w, "")
		return w

	case "call_expression", "new_expression":
		n := c.newNode(ts, ast.KindExpression)
		callee := ts.ChildByFieldName("function")
		if callee == nil {
			callee = ts.ChildByFieldName("type")
		}
		w := implicitOwner{node: n, implicit: []ast.Name{&name{text: c.text(callee)}}}
		c.children(ts, w, "")
		return w

	case "friend_declaration":
		return c.friendDeclaration(ts)

	case "field_identifier":
		if parentType == "field_declaration" {
			w := named{c.newNode(ts, ast.KindDeclarator)}
			w.name = &name{text: c.text(ts)}
			return w
		}
	}

	var kind ast.Kind
	switch {
	case declarationTypes[typ]:
		kind = ast.KindDeclaration
	case declaratorTypes[typ]:
		kind = ast.KindDeclarator
	case nameTypes[typ]:
		kind = ast.KindName
	case declSpecifierTypes[typ]:
		kind = ast.KindDeclSpecifier
	case typ == "compound_statement" || strings.HasSuffix(typ, "_statement"):
		kind = ast.KindStatement
	case strings.HasSuffix(typ, "_expression"):
		kind = ast.KindExpression
	default:
		kind = ast.KindOther
	}

	n := c.newNode(ts, kind)
	if kind == ast.KindName {
		w := named{n}
		w.name = &name{text: c.text(ts)}
		c.children(ts, w, "")
		return w
	}
	w := plain{n}
	c.children(ts, w, "")
	return w
}

// castDeclarator converts the declarator of a conversion operator. The
// grammar has no function_declarator there: `operator int() const` is an
// operator_cast around an abstract function declarator, optionally behind
// a qualified identifier for out-of-line definitions.
func (c *converter) castDeclarator(ts, cast *sitter.Node) ast.Node {
	n := c.newNode(ts, ast.KindFunctionDeclarator)
	n.friend = c.friend

	var params *sitter.Node
	if d := cast.ChildByFieldName("declarator"); d != nil {
		params = d.ChildByFieldName("parameters")
	}
	text := castName(ts, cast, c.source)
	b := newBinding(c.scope, text, paramSuffix(params, c.source))
	n.name = &name{text: text, bind: b}
	c.unit.index.add(b)

	w := named{n}
	c.children(ts, w, "")
	return w
}

func (c *converter) typeSpecifier(ts *sitter.Node) ast.Node {
	body := ts.ChildByFieldName("body")
	kind := ast.KindElaboratedTypeSpecifier
	if body != nil {
		kind = ast.KindCompositeTypeSpecifier
	}

	n := c.newNode(ts, kind)
	n.typeKey = typeKeys[ts.Type()]
	n.friend = c.friend

	text := c.text(ts.ChildByFieldName("name"))
	scopeName := ""
	if text != "" {
		b := newBinding(c.scope, text, "")
		n.name = &name{text: text, bind: b}
		c.unit.index.add(b)
		scopeName = text
	} else if body != nil {
		scopeName = fmt.Sprintf("(anonymous@%d)", ts.StartByte())
	}

	w := named{n}
	c.children(ts, w, scopeName)
	return w
}

// friendDeclaration converts `friend ...;`. The grammar reduces
// `friend class Peer;` to a bare type name, so an elaborated type specifier
// spanning the class key and the name is synthesised for it.
func (c *converter) friendDeclaration(ts *sitter.Node) ast.Node {
	w := plain{c.newNode(ts, ast.KindDeclaration)}

	saved := c.friend
	c.friend = true
	defer func() { c.friend = saved }()

	var keyword *sitter.Node
	for i := range int(ts.ChildCount()) {
		child := ts.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		switch child.Type() {
		case "class", "struct", "union":
			keyword = child
		}
	}
	if keyword == nil {
		c.children(ts, w, "")
		return w
	}

	var target *sitter.Node
	for i := range int(ts.NamedChildCount()) {
		child := ts.NamedChild(i)
		switch child.Type() {
		case "type_identifier", "qualified_identifier", "template_type":
			target = child
		}
	}
	if target == nil {
		c.children(ts, w, "")
		return w
	}

	start, end := keyword.StartByte(), target.EndByte()
	n := &node{
		kind:   ast.KindElaboratedTypeSpecifier,
		tsType: "elaborated_type_specifier",
		ts:     target,
		unit:   c.unit,
		loc: ast.FileLocation{
			Offset:    int(start),
			Length:    int(end - start),
			StartLine: int(keyword.StartPoint().Row) + 1,
			EndLine:   int(target.EndPoint().Row) + 1,
		},
		id:      identity(c.unit.result.Path, "elaborated_type_specifier", start, end),
		typeKey: typeKeys[keyword.Type()],
		friend:  true,
	}
	text := c.text(target)
	b := newBinding(c.scope, text, "")
	n.name = &name{text: text, bind: b}
	c.unit.index.add(b)

	elaborated := named{n}
	attach(elaborated, c.convert(target, "elaborated_type_specifier"))
	attach(w, elaborated)
	return w
}

// innerDeclarator returns the declarator wrapped by a pointer, reference or
// parenthesized declarator.
func innerDeclarator(n *sitter.Node) *sitter.Node {
	if d := n.ChildByFieldName("declarator"); d != nil {
		return d
	}
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if child.Type() != "type_qualifier" {
			return child
		}
	}
	return nil
}

func isWrapper(nodeType string) bool {
	switch nodeType {
	case "pointer_declarator", "reference_declarator", "parenthesized_declarator":
		return true
	default:
		return false
	}
}

// wrapsFunctionDeclarator reports whether n is a pointer or reference
// declarator around a function declarator, as in `int *f();`.
func wrapsFunctionDeclarator(n *sitter.Node) bool {
	if n.Type() != "pointer_declarator" && n.Type() != "reference_declarator" {
		return false
	}
	for d := innerDeclarator(n); d != nil; d = innerDeclarator(d) {
		if d.Type() == "function_declarator" {
			return true
		}
		if !isWrapper(d.Type()) {
			return false
		}
	}
	return false
}

// declaratorName returns the declared name of a function declarator or
// definition, digging through pointer and parenthesized declarators.
func declaratorName(n *sitter.Node, source []byte) string {
	d := n.ChildByFieldName("declarator")
	for d != nil {
		switch {
		case d.Type() == "function_declarator":
			d = d.ChildByFieldName("declarator")
		case isWrapper(d.Type()):
			d = innerDeclarator(d)
		default:
			if cast := castOperator(d); cast != nil {
				return castName(d, cast, source)
			}
			return strings.Join(strings.Fields(parser.GetNodeText(d, source)), "")
		}
	}
	return ""
}

// castOperator returns the operator_cast named by n: n itself, or the
// innermost name of a qualified identifier such as `N::S::operator int`.
func castOperator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "operator_cast":
			return n
		case "qualified_identifier":
			n = n.ChildByFieldName("name")
		default:
			return nil
		}
	}
	return nil
}

// castName is the text of n up to the cast's parameter list, e.g.
// "S::operator int".
func castName(n, cast *sitter.Node, source []byte) string {
	end := cast.EndByte()
	if d := cast.ChildByFieldName("declarator"); d != nil {
		end = d.StartByte()
	}
	text := strings.Join(strings.Fields(string(source[n.StartByte():end])), " ")
	return strings.NewReplacer(" ::", "::", ":: ", "::").Replace(text)
}

// paramSuffix renders the parameter types of a parameter list, e.g.
// "(int,const char*)". `(void)` is the empty list.
func paramSuffix(params *sitter.Node, source []byte) string {
	if params == nil {
		return "()"
	}
	var types []string
	for i := range int(params.ChildCount()) {
		p := params.Child(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			types = append(types, paramType(p, source))
		case "variadic_parameter_declaration", "...":
			types = append(types, "...")
		}
	}
	if len(types) == 1 && types[0] == "void" {
		types = nil
	}
	return "(" + strings.Join(types, ",") + ")"
}

func paramType(p *sitter.Node, source []byte) string {
	var b strings.Builder
	for i := range int(p.NamedChildCount()) {
		if q := p.NamedChild(i); q.Type() == "type_qualifier" {
			b.WriteString(parser.GetNodeText(q, source))
			b.WriteByte(' ')
		}
	}
	b.WriteString(strings.Join(strings.Fields(parser.GetNodeText(p.ChildByFieldName("type"), source)), " "))

	for d := p.ChildByFieldName("declarator"); d != nil; {
		switch d.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			b.WriteByte('*')
		case "reference_declarator", "abstract_reference_declarator":
			if strings.HasPrefix(parser.GetNodeText(d, source), "&&") {
				b.WriteString("&&")
			} else {
				b.WriteByte('&')
			}
		case "array_declarator", "abstract_array_declarator":
			b.WriteString("[]")
		}
		switch d.Type() {
		case "identifier", "field_identifier":
			d = nil
		default:
			d = innerDeclarator(d)
		}
	}
	return b.String()
}
