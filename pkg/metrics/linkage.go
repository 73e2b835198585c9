package metrics

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/metriculator/pkg/model"
)

// Linkage pairs function declarations with definitions of the same canonical
// binding. Declarations without a definition in the traversed units are
// reported as undefined; that is normal for headers and external APIs.
type Linkage struct {
	decls   map[string][]model.NodeID
	defined *roaring.Bitmap
	defs    map[string]model.NodeID
	tree    *model.Tree
}

// NewLinkage returns an empty linkage listener.
func NewLinkage() *Linkage {
	return &Linkage{
		decls:   make(map[string][]model.NodeID),
		defined: roaring.New(),
		defs:    make(map[string]model.NodeID),
	}
}

func (l *Linkage) VisitingType(*model.Tree, model.NodeID) error { return nil }
func (l *Linkage) LeavingType(*model.Tree, model.NodeID) error  { return nil }

// LeavingFunction indexes the function by its binding key.
func (l *Linkage) LeavingFunction(t *model.Tree, id model.NodeID) error {
	l.tree = t
	n := t.Node(id)
	b := n.Descriptor.Binding()
	if b == nil {
		return nil
	}
	key := b.Key()

	if n.Kind == model.KindFunctionDef {
		l.defs[key] = id
		for _, decl := range l.decls[key] {
			l.defined.Add(uint32(decl))
		}
		return nil
	}

	l.decls[key] = append(l.decls[key], id)
	if _, ok := l.defs[key]; ok {
		l.defined.Add(uint32(id))
	}
	return nil
}

// Defined reports whether the declaration id has a matching definition.
func (l *Linkage) Defined(id model.NodeID) bool {
	return id >= 0 && l.defined.Contains(uint32(id))
}

// Definition returns the definition bound to the same entity as the
// declaration id.
func (l *Linkage) Definition(id model.NodeID) (model.NodeID, bool) {
	if l.tree == nil || !l.tree.Valid(id) {
		return model.NoNode, false
	}
	b := l.tree.Node(id).Descriptor.Binding()
	if b == nil {
		return model.NoNode, false
	}
	def, ok := l.defs[b.Key()]
	return def, ok
}

// Undefined returns the binding keys of declarations that never met a
// definition, sorted.
func (l *Linkage) Undefined() []string {
	var keys []string
	for key, ids := range l.decls {
		if _, ok := l.defs[key]; ok {
			continue
		}
		if len(ids) > 0 && !l.defined.Contains(uint32(ids[0])) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// DefinedCount returns how many declarations are matched by a definition.
func (l *Linkage) DefinedCount() uint64 {
	return l.defined.GetCardinality()
}
