package kvring

import "fmt"

// State is the state of a Dispatcher's node set.
type State uint

const (
	// StateEmpty is the initial state. A Dispatcher in the Empty state has no
	// nodes and rejects key operations with ErrNoNodes.
	StateEmpty State = iota

	// StatePopulated marks a Dispatcher with at least one node. Keys can be
	// routed, stored, and retrieved.
	StatePopulated
)

// String returns the string representation of s.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("<unknown state %d>", s)
	}
}
