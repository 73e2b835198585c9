package metrics

import (
	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/model"
)

// TypeMetrics describes one composite type as it was left.
type TypeMetrics struct {
	Name      string `json:"name"`
	Qualified string `json:"qualified"`
	TypeKey   string `json:"type_key"`
	Line      int    `json:"line"`
	Functions int    `json:"functions"`
	Members   int    `json:"members"`
	Nested    int    `json:"nested"`
}

// Structure counts scopes as the traversal reports them.
type Structure struct {
	Namespaces    int           `json:"namespaces"`
	Types         int           `json:"types"`
	FunctionDecls int           `json:"function_decls"`
	FunctionDefs  int           `json:"function_defs"`
	Friends       int           `json:"friends"`
	MaxDepth      int           `json:"max_depth"`
	TypeDetails   []TypeMetrics `json:"type_details,omitempty"`
}

// NewStructure returns an empty structure listener.
func NewStructure() *Structure {
	return &Structure{}
}

// VisitingType counts the type and tracks depth.
func (s *Structure) VisitingType(t *model.Tree, id model.NodeID) error {
	s.Types++
	s.depth(t, id)
	return nil
}

// LeavingType records the children the type accumulated.
func (s *Structure) LeavingType(t *model.Tree, id model.NodeID) error {
	n := t.Node(id)
	tm := TypeMetrics{
		Name:      n.Name,
		Qualified: t.QualifiedName(id),
		TypeKey:   ast.TypeKeyName(n.Descriptor.TypeKey()),
		Line:      n.Descriptor.StartLine(),
	}
	for _, c := range t.Children(id) {
		switch t.Node(c).Kind {
		case model.KindFunctionDecl, model.KindFunctionDef:
			tm.Functions++
		case model.KindMember:
			tm.Members++
		case model.KindCompositeType:
			tm.Nested++
		}
	}
	s.TypeDetails = append(s.TypeDetails, tm)
	return nil
}

// LeavingFunction counts declarations, definitions and friends.
func (s *Structure) LeavingFunction(t *model.Tree, id model.NodeID) error {
	n := t.Node(id)
	if n.Kind == model.KindFunctionDef {
		s.FunctionDefs++
	} else {
		s.FunctionDecls++
	}
	if n.Descriptor.IsFriend() {
		s.Friends++
	}
	s.depth(t, id)
	return nil
}

// Finish fills in what no notification reports. Namespaces are never
// announced to listeners so they are counted from the finished tree.
func (s *Structure) Finish(t *model.Tree, root model.NodeID) {
	t.Walk(root, func(id model.NodeID, _ int) bool {
		if t.Node(id).Kind == model.KindNamespace {
			s.Namespaces++
			s.depth(t, id)
		}
		return true
	})
}

func (s *Structure) depth(t *model.Tree, id model.NodeID) {
	if d := t.Depth(id); d > s.MaxDepth {
		s.MaxDepth = d
	}
}
