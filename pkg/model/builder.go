package model

// Builder attaches a node under parent and returns the id of the scope that
// should become current. Implementations may return an existing node instead
// of appending n.
type Builder interface {
	AddChild(t *Tree, parent NodeID, n Node) (NodeID, error)
}

// AppendBuilder always appends. Every visit yields a new node.
type AppendBuilder struct{}

// AddChild implements Builder.
func (AppendBuilder) AddChild(t *Tree, parent NodeID, n Node) (NodeID, error) {
	return t.AddChild(parent, n)
}

// StructuralBuilder collapses scopes that denote the same logical entity:
//
//   - a type with the same name as the enclosing type returns the enclosing
//     type (a self-reference such as `struct S { struct S *next; }`)
//   - a namespace or type whose name matches an existing sibling returns
//     that sibling (a reopened namespace, a forward declaration). When the
//     sibling was created from an elaborated mention and n comes from the
//     definition, the definition's descriptor replaces the elaborated one.
//   - any node whose descriptor is Equal to an existing sibling's is the
//     same declaration visited again and returns that sibling, so
//     traversing one AST twice into a scope adds nothing.
//
// Distinct function declarations are never merged, even when they share a
// name.
type StructuralBuilder struct{}

// AddChild implements Builder.
func (StructuralBuilder) AddChild(t *Tree, parent NodeID, n Node) (NodeID, error) {
	if !t.Valid(parent) {
		return t.AddChild(parent, n)
	}

	if n.Kind == KindCompositeType {
		p := t.nodes[parent]
		if p.Kind == KindCompositeType && p.Name == n.Name {
			return parent, nil
		}
	}

	if n.Kind == KindNamespace || n.Kind == KindCompositeType {
		if id, ok := t.FindChild(parent, n.Kind, n.Name); ok {
			existing := t.nodes[id].Descriptor
			if existing.IsElaboratedType() && n.Descriptor.IsCompositeType() {
				t.setDescriptor(id, n.Descriptor)
			}
			return id, nil
		}
	}

	if id, ok := revisited(t, parent, n); ok {
		return id, nil
	}
	return t.AddChild(parent, n)
}

// revisited finds the child of parent created from the same AST node as n.
// Synthetic descriptors carry no source identity and never match.
func revisited(t *Tree, parent NodeID, n Node) (NodeID, bool) {
	if n.Descriptor.Role() == RoleSynthetic {
		return NoNode, false
	}
	for _, id := range t.Children(parent) {
		c := t.nodes[id]
		if c.Kind == n.Kind && c.Name == n.Name && c.Descriptor.Equal(n.Descriptor) {
			return id, true
		}
	}
	return NoNode, false
}

// BuilderFor returns the builder registered under name: "structural"
// (the default) or "append".
func BuilderFor(name string) (Builder, bool) {
	switch name {
	case "", "structural":
		return StructuralBuilder{}, true
	case "append":
		return AppendBuilder{}, true
	default:
		return nil, false
	}
}
