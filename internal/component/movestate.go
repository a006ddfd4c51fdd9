package component

// MoveState tracks whether an object is queued for end-of-tick cell relocation.
type MoveState uint8

const (
	MoveNone     MoveState = iota // not queued
	MoveActive                    // queued, pending position valid
	MoveInactive                  // queued but cancelled; drain resets to MoveNone
)

func (s MoveState) String() string {
	switch s {
	case MoveNone:
		return "none"
	case MoveActive:
		return "active"
	case MoveInactive:
		return "inactive"
	default:
		return "unknown"
	}
}
