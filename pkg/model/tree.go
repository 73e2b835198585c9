package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NodeID addresses a node within its Tree.
type NodeID int

// NoNode is the parent of a root.
const NoNode NodeID = -1

// ErrInvalidNode is returned for ids that do not address a node in the tree.
var ErrInvalidNode = errors.New("invalid node id")

// Tree is an arena of scope nodes rooted at a caller-supplied node.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree whose root is root.
func NewTree(root Node) *Tree {
	root.parent = NoNode
	root.children = nil
	return &Tree{nodes: []Node{root}}
}

// Root returns the id of the root node.
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Valid reports whether id addresses a node in t.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns a copy of the node at id. It panics if id is invalid.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.Valid(id) {
		return NoNode
	}
	return t.nodes[id].parent
}

// Children returns the ids of id's children in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	return append([]NodeID(nil), t.nodes[id].children...)
}

// AddChild appends n under parent and returns the new node's id. It never
// de-duplicates; see StructuralBuilder for merging.
func (t *Tree) AddChild(parent NodeID, n Node) (NodeID, error) {
	if !t.Valid(parent) {
		return NoNode, fmt.Errorf("%w: parent %d", ErrInvalidNode, parent)
	}
	id := NodeID(len(t.nodes))
	n.parent = parent
	n.children = nil
	t.nodes = append(t.nodes, n)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id, nil
}

// FindChild returns the first child of parent with the given kind and name.
func (t *Tree) FindChild(parent NodeID, kind Kind, name string) (NodeID, bool) {
	if !t.Valid(parent) {
		return NoNode, false
	}
	for _, c := range t.nodes[parent].children {
		if t.nodes[c].Kind == kind && t.nodes[c].Name == name {
			return c, true
		}
	}
	return NoNode, false
}

func (t *Tree) setDescriptor(id NodeID, d Descriptor) {
	t.nodes[id].Descriptor = d
}

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		depth++
	}
	return depth
}

// QualifiedName joins the names of id and its ancestors with "::", leaving
// out workspace and file roots.
func (t *Tree) QualifiedName(id NodeID) string {
	var parts []string
	for cur := id; cur != NoNode; cur = t.Parent(cur) {
		n := t.nodes[cur]
		if n.Kind.IsRoot() {
			continue
		}
		parts = append(parts, n.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}

// Walk visits every node below and including id in pre-order. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	if !t.Valid(id) {
		return
	}
	t.walk(id, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, c := range t.nodes[id].children {
		t.walk(c, depth+1, fn)
	}
}

// Count returns the number of nodes of the given kind.
func (t *Tree) Count(kind Kind) int {
	count := 0
	for i := range t.nodes {
		if t.nodes[i].Kind == kind {
			count++
		}
	}
	return count
}

type nodeJSON struct {
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	Descriptor Descriptor  `json:"descriptor"`
	Children   []*nodeJSON `json:"children,omitempty"`
}

func (t *Tree) toJSON(id NodeID) *nodeJSON {
	n := t.nodes[id]
	out := &nodeJSON{Kind: n.Kind.String(), Name: n.Name, Descriptor: n.Descriptor}
	for _, c := range n.children {
		out.Children = append(out.Children, t.toJSON(c))
	}
	return out
}

// MarshalJSON renders the tree as nested objects starting at the root.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toJSON(t.Root()))
}
