package meter

import "fmt"

// Status is the closed set of device statuses. Anything outside these values
// is rejected at the edges so call sites never compare free-form strings.
type Status string

const (
	StatusInactive     Status = "inactive"
	StatusActive       Status = "active"
	StatusMaintenance  Status = "maintenance"
	StatusCoverOpen    Status = "cover_open"
	StatusReversed     Status = "reversed"
	StatusTerminalOpen Status = "terminal_open"
)

// Statuses lists every legal status value.
func Statuses() []Status {
	return []Status{
		StatusInactive,
		StatusActive,
		StatusMaintenance,
		StatusCoverOpen,
		StatusReversed,
		StatusTerminalOpen,
	}
}

// ParseStatus validates a string against the closed status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusInactive, StatusActive, StatusMaintenance,
		StatusCoverOpen, StatusReversed, StatusTerminalOpen:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown device status %q", s)
}

// IsAlert reports whether the status is a physical fault condition that
// requires explicit resolution. This is the single alert predicate shared by
// the query engine, the stats summarizer and report filtering.
func (s Status) IsAlert() bool {
	switch s {
	case StatusCoverOpen, StatusReversed, StatusTerminalOpen:
		return true
	}
	return false
}

// Protocol status flags carried in the second frame field.
const (
	FlagCoverOpen    = "CO"
	FlagReversed     = "R"
	FlagTerminalOpen = "TO"
	FlagStandard     = "S"
	FlagData         = "D"
)

// Transition maps (current status, protocol flag) to the new status. Alert
// statuses are sticky: "S"/"D" frames do not clear them, only ResolveAlert
// does. Unknown flags leave the status unchanged.
func Transition(current Status, flag string) Status {
	switch flag {
	case FlagCoverOpen:
		return StatusCoverOpen
	case FlagReversed:
		return StatusReversed
	case FlagTerminalOpen:
		return StatusTerminalOpen
	case FlagStandard, FlagData:
		if current.IsAlert() {
			return current
		}
		return StatusActive
	}
	return current
}
