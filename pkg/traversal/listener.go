package traversal

import (
	"fmt"

	"github.com/panbanda/metriculator/pkg/model"
)

// Listener observes scope changes during a traversal. Callbacks run
// synchronously on the traversal goroutine; a returned error aborts the walk.
//
// VisitingType fires when a composite type scope opens. LeavingType fires
// before a composite type scope closes and LeavingFunction before a function
// scope closes. Elaborated type specifiers and function declarators never
// produce an opening event.
type Listener interface {
	VisitingType(t *model.Tree, id model.NodeID) error
	LeavingType(t *model.Tree, id model.NodeID) error
	LeavingFunction(t *model.Tree, id model.NodeID) error
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are no-ops.
type ListenerFuncs struct {
	OnVisitingType    func(t *model.Tree, id model.NodeID) error
	OnLeavingType     func(t *model.Tree, id model.NodeID) error
	OnLeavingFunction func(t *model.Tree, id model.NodeID) error
}

// VisitingType implements Listener.
func (f ListenerFuncs) VisitingType(t *model.Tree, id model.NodeID) error {
	if f.OnVisitingType == nil {
		return nil
	}
	return f.OnVisitingType(t, id)
}

// LeavingType implements Listener.
func (f ListenerFuncs) LeavingType(t *model.Tree, id model.NodeID) error {
	if f.OnLeavingType == nil {
		return nil
	}
	return f.OnLeavingType(t, id)
}

// LeavingFunction implements Listener.
func (f ListenerFuncs) LeavingFunction(t *model.Tree, id model.NodeID) error {
	if f.OnLeavingFunction == nil {
		return nil
	}
	return f.OnLeavingFunction(t, id)
}

// EventType names a listener callback.
type EventType string

const (
	EventVisitingType    EventType = "visiting_type"
	EventLeavingType     EventType = "leaving_type"
	EventLeavingFunction EventType = "leaving_function"
)

// Event is one recorded listener callback.
type Event struct {
	Type EventType    `json:"type"`
	Node model.NodeID `json:"node"`
	Kind model.Kind   `json:"-"`
	Name string       `json:"name"`
}

// String renders the event as "visit S", "leave S" or "leave f() [decl]".
func (e Event) String() string {
	switch e.Type {
	case EventVisitingType:
		return "visit " + e.Name
	case EventLeavingType:
		return "leave " + e.Name
	default:
		tag := "decl"
		if e.Kind == model.KindFunctionDef {
			tag = "def"
		}
		return fmt.Sprintf("leave %s [%s]", e.Name, tag)
	}
}

// Recorder is a Listener that keeps every event in order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) record(typ EventType, t *model.Tree, id model.NodeID) error {
	n := t.Node(id)
	r.Events = append(r.Events, Event{Type: typ, Node: id, Kind: n.Kind, Name: n.Name})
	return nil
}

// VisitingType implements Listener.
func (r *Recorder) VisitingType(t *model.Tree, id model.NodeID) error {
	return r.record(EventVisitingType, t, id)
}

// LeavingType implements Listener.
func (r *Recorder) LeavingType(t *model.Tree, id model.NodeID) error {
	return r.record(EventLeavingType, t, id)
}

// LeavingFunction implements Listener.
func (r *Recorder) LeavingFunction(t *model.Tree, id model.NodeID) error {
	return r.record(EventLeavingFunction, t, id)
}

// Strings returns the recorded events rendered with Event.String.
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.String()
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}
