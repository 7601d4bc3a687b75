package canvas

import "fmt"

// State is the lifecycle stage of a canvas item.
type State int

const (
	// Uncommitted items sit in the crafting queue and have no position.
	Uncommitted State = iota
	// Placed items are on the canvas and own a ledger entry.
	Placed
	// Removed is terminal.
	Removed
)

var stateNames = [...]string{"uncommitted", "placed", "removed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Event is a user gesture applied to an item.
type Event int

const (
	Commit Event = iota
	Relocate
	Remove
)

var eventNames = [...]string{"commit", "relocate", "remove"}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// transitions lists every legal (state, event) pair. Guards such as the
// capacity and gesture threshold are checked by the Canvas on top of this.
var transitions = map[State]map[Event]State{
	Uncommitted: {
		Commit: Placed,
		Remove: Removed,
	},
	Placed: {
		Relocate: Placed,
		Remove:   Removed,
	},
}

// Next returns the state reached by applying e in s, and false when the
// pair is not a legal transition.
func Next(s State, e Event) (State, bool) {
	next, ok := transitions[s][e]
	return next, ok
}
