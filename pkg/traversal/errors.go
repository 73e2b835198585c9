package traversal

import (
	"errors"
	"fmt"

	"github.com/panbanda/metriculator/pkg/model"
)

// ErrInvariantViolation is returned when the AST has a shape the scope rules
// do not expect, for example leaving a function definition while the
// current scope is not a function. The partially built tree must be
// discarded.
var ErrInvariantViolation = errors.New("scope invariant violated")

// ListenerError wraps an error returned by a listener.
type ListenerError struct {
	Event EventType
	Node  model.NodeID
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s on node %d: %v", e.Event, e.Node, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

func invariant(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
}
