package traversal

import (
	"fmt"
	"log/slog"

	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/model"
)

type action int

const (
	proceed action = iota
	skipSubtree
)

// Visitor walks an AST depth-first and grows a scope tree, keeping a current
// scope that every scope-opening visit restores on leave.
//
// A Visitor is a single-threaded session. When Traverse returns an error the
// tree is partially populated and must be discarded.
type Visitor struct {
	tree      *model.Tree
	builder   model.Builder
	listeners []Listener
	logger    *slog.Logger
	members   bool

	start   model.NodeID
	current model.NodeID
}

// Option is a functional option for configuring a Visitor.
type Option func(*Visitor)

// WithBuilder sets the builder that attaches scopes. Defaults to
// model.StructuralBuilder.
func WithBuilder(b model.Builder) Option {
	return func(v *Visitor) {
		v.builder = b
	}
}

// WithListeners registers listeners in order.
func WithListeners(ls ...Listener) Option {
	return func(v *Visitor) {
		v.listeners = append(v.listeners, ls...)
	}
}

// WithLogger sets the logger for scope transitions (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(v *Visitor) {
		v.logger = l
	}
}

// WithScope starts the traversal at id instead of the tree root. This is how
// several translation units are grafted under one workspace.
func WithScope(id model.NodeID) Option {
	return func(v *Visitor) {
		v.start = id
	}
}

// WithMembers records data member declarators of composite types as member
// leaves. Members never open a scope or notify listeners.
func WithMembers() Option {
	return func(v *Visitor) {
		v.members = true
	}
}

// New creates a visitor that builds into tree.
func New(tree *model.Tree, opts ...Option) *Visitor {
	v := &Visitor{
		tree:    tree,
		builder: model.StructuralBuilder{},
		logger:  slog.New(slog.DiscardHandler),
		start:   tree.Root(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.current = v.start
	return v
}

// Add registers a listener after the existing ones.
func (v *Visitor) Add(l Listener) {
	v.listeners = append(v.listeners, l)
}

// Current returns the current scope.
func (v *Visitor) Current() model.NodeID { return v.current }

// Tree returns the tree being built.
func (v *Visitor) Tree() *model.Tree { return v.tree }

// Traverse walks root and its descendants. On success the current scope is
// the start scope again.
func (v *Visitor) Traverse(root ast.Node) error {
	if !v.tree.Valid(v.start) {
		return fmt.Errorf("%w: start scope %d", model.ErrInvalidNode, v.start)
	}
	v.current = v.start
	if err := v.walk(root); err != nil {
		return err
	}
	if v.current != v.start {
		return invariant("traversal ended in scope %q", v.tree.Node(v.current).Name)
	}
	return nil
}

// Traverse builds the scopes of root into tree using the structural builder.
func Traverse(root ast.Node, tree *model.Tree, listeners ...Listener) error {
	return New(tree, WithListeners(listeners...)).Traverse(root)
}

func (v *Visitor) walk(n ast.Node) error {
	before := v.current

	act, err := v.enter(n)
	if err != nil {
		return err
	}
	if act == skipSubtree {
		if v.current != before {
			return invariant("skipped %s left scope %q open", n.Kind(), v.tree.Node(v.current).Name)
		}
		return nil
	}

	for _, child := range n.Children() {
		if err := v.walk(child); err != nil {
			return err
		}
	}

	if err := v.leave(n); err != nil {
		return err
	}
	if v.current != before {
		return invariant("leaving %s %s did not restore scope %q", n.Kind(), n.IdentityToken(), v.tree.Node(before).Name)
	}
	return nil
}

func (v *Visitor) enter(n ast.Node) (action, error) {
	switch n.Kind() {
	case ast.KindNamespaceDefinition:
		_, err := v.open(n)
		return proceed, err

	case ast.KindFunctionDefinition:
		_, err := v.open(n)
		return proceed, err

	case ast.KindFunctionDeclarator:
		return v.enterDeclarator(n)

	case ast.KindCompositeTypeSpecifier, ast.KindElaboratedTypeSpecifier:
		return v.enterType(n)

	case ast.KindDeclarator:
		if v.members {
			return proceed, v.addMember(n)
		}
	}
	return proceed, nil
}

func (v *Visitor) enterDeclarator(n ast.Node) (action, error) {
	switch ast.ParentKind(n) {
	case ast.KindFunctionDefinition:
		return proceed, nil
	case ast.KindLambdaExpression:
		v.logger.Debug("skip lambda declarator", "id", n.IdentityToken())
		return skipSubtree, nil
	}

	if children := n.Children(); len(children) > 0 && ast.IsImplicitNameOwner(children[0]) {
		v.logger.Debug("skip implicit name owner", "id", n.IdentityToken())
		return skipSubtree, nil
	}
	if v.tree.Node(v.current).Kind.IsFunction() {
		return skipSubtree, nil
	}

	prev := v.current
	id, err := v.open(n)
	if err != nil {
		return proceed, err
	}
	if id == prev || !v.tree.Node(id).Kind.IsFunction() {
		v.current = prev
		return skipSubtree, nil
	}
	return proceed, nil
}

func (v *Visitor) enterType(n ast.Node) (action, error) {
	prev := v.current
	id, err := v.open(n)
	if err != nil {
		return proceed, err
	}
	if id == prev {
		v.current = prev
		v.logger.Debug("skip redundant type", "name", v.tree.Node(id).Name)
		return skipSubtree, nil
	}
	if n.Kind() == ast.KindCompositeTypeSpecifier {
		if err := v.notify(EventVisitingType, id); err != nil {
			return proceed, err
		}
	}
	return proceed, nil
}

func (v *Visitor) addMember(n ast.Node) error {
	if ast.ParentKind(n) != ast.KindDeclaration || v.tree.Node(v.current).Kind != model.KindCompositeType {
		return nil
	}
	m, err := model.FromAST(n)
	if err != nil {
		return err
	}
	_, err = v.builder.AddChild(v.tree, v.current, m)
	return err
}

func (v *Visitor) leave(n ast.Node) error {
	cur := v.tree.Node(v.current)

	switch n.Kind() {
	case ast.KindNamespaceDefinition:
		if cur.Kind != model.KindNamespace {
			return invariant("leaving namespace while in %s %q", cur.Kind, cur.Name)
		}
		return v.pop()

	case ast.KindFunctionDefinition:
		if cur.Kind != model.KindFunctionDef {
			return invariant("leaving function definition while in %s %q", cur.Kind, cur.Name)
		}
		if err := v.notify(EventLeavingFunction, v.current); err != nil {
			return err
		}
		return v.pop()

	case ast.KindFunctionDeclarator:
		pk := ast.ParentKind(n)
		if !cur.Descriptor.IsFunction() || pk == ast.KindFunctionDefinition || pk == ast.KindLambdaExpression {
			return nil
		}
		if err := v.notify(EventLeavingFunction, v.current); err != nil {
			return err
		}
		return v.pop()

	case ast.KindCompositeTypeSpecifier:
		if cur.Kind != model.KindCompositeType {
			return invariant("leaving type while in %s %q", cur.Kind, cur.Name)
		}
		if err := v.notify(EventLeavingType, v.current); err != nil {
			return err
		}
		return v.pop()

	case ast.KindElaboratedTypeSpecifier:
		if cur.Kind != model.KindCompositeType {
			return invariant("leaving elaborated type while in %s %q", cur.Kind, cur.Name)
		}
		return v.pop()
	}
	return nil
}

func (v *Visitor) open(n ast.Node) (model.NodeID, error) {
	node, err := model.FromAST(n)
	if err != nil {
		return model.NoNode, err
	}
	id, err := v.builder.AddChild(v.tree, v.current, node)
	if err != nil {
		return model.NoNode, err
	}
	v.logger.Debug("open scope", "kind", node.Kind, "name", node.Name, "id", id, "parent", v.current)
	v.current = id
	return id, nil
}

func (v *Visitor) pop() error {
	if v.current == v.start {
		return invariant("cannot leave start scope %q", v.tree.Node(v.current).Name)
	}
	v.current = v.tree.Parent(v.current)
	return nil
}

func (v *Visitor) notify(event EventType, id model.NodeID) error {
	for _, l := range v.listeners {
		var err error
		switch event {
		case EventVisitingType:
			err = l.VisitingType(v.tree, id)
		case EventLeavingType:
			err = l.LeavingType(v.tree, id)
		case EventLeavingFunction:
			err = l.LeavingFunction(v.tree, id)
		}
		if err != nil {
			return &ListenerError{Event: event, Node: id, Err: err}
		}
	}
	return nil
}
