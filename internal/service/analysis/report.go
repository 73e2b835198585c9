package analysis

import (
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
)

// Scope is one scope tree node flattened for serialization. Parent is -1 for
// the root.
type Scope struct {
	ID        int    `json:"id"`
	Parent    int    `json:"parent"`
	Depth     int    `json:"depth"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Qualified string `json:"qualified,omitempty"`
	Role      string `json:"role"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Friend    bool   `json:"friend,omitempty"`
	Binding   string `json:"binding,omitempty"`
}

// FileReport is everything measured for one translation unit.
type FileReport struct {
	Path        string                    `json:"path"`
	Language    string                    `json:"language"`
	Header      bool                      `json:"header,omitempty"`
	ParseErrors bool                      `json:"parse_errors,omitempty"`
	Scopes      []Scope                   `json:"scopes"`
	Events      []string                  `json:"events,omitempty"`
	Structure   metrics.Structure         `json:"structure"`
	Functions   []metrics.FunctionMetrics `json:"functions,omitempty"`
	Undefined   []string                  `json:"undefined,omitempty"`
	Violations  []metrics.Violation       `json:"violations,omitempty"`

	Cached bool `json:"-"`
}

// Flatten lists the nodes of t in depth-first order.
func Flatten(t *model.Tree) []Scope {
	scopes := make([]Scope, 0, t.Len())
	t.Walk(t.Root(), func(id model.NodeID, depth int) bool {
		n := t.Node(id)
		d := n.Descriptor
		sc := Scope{
			ID:        int(id),
			Parent:    int(t.Parent(id)),
			Depth:     depth,
			Kind:      n.Kind.String(),
			Name:      n.Name,
			Role:      d.Role().String(),
			StartLine: d.StartLine(),
			EndLine:   d.EndLine(),
			Friend:    d.IsFriend(),
		}
		if !n.Kind.IsRoot() {
			sc.Qualified = t.QualifiedName(id)
		}
		if b := d.Binding(); b != nil {
			sc.Binding = b.Key()
		}
		scopes = append(scopes, sc)
		return true
	})
	return scopes
}
