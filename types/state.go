package types

// State represents the configuration lifecycle state.
//
// States follow a single progression:
//
//	StateUninitialized → StateActive
//
// There is no terminal state; an active registry stays active for the
// lifetime of the process and only its version advances.
type State int

const (
	// StateUninitialized indicates no configuration has been loaded yet.
	StateUninitialized State = iota

	// StateActive indicates a configuration document is in effect.
	StateActive
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateActive:
		return "Active"
	default:
		return "Unknown"
	}
}
