package enums

import "fmt"

// AssignmentStatus tracks the delivery lifecycle of an order assignment.
type AssignmentStatus string

const (
	AssignmentStatusUnassigned     AssignmentStatus = "unassigned"
	AssignmentStatusAssigned       AssignmentStatus = "assigned"
	AssignmentStatusPickedUp       AssignmentStatus = "picked_up"
	AssignmentStatusOutForDelivery AssignmentStatus = "out_for_delivery"
	AssignmentStatusDelivered      AssignmentStatus = "delivered"
	AssignmentStatusFailed         AssignmentStatus = "failed"
	AssignmentStatusReturned       AssignmentStatus = "returned"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusUnassigned,
	AssignmentStatusAssigned,
	AssignmentStatusPickedUp,
	AssignmentStatusOutForDelivery,
	AssignmentStatusDelivered,
	AssignmentStatusFailed,
	AssignmentStatusReturned,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s AssignmentStatus) IsTerminal() bool {
	switch s {
	case AssignmentStatusDelivered, AssignmentStatusFailed, AssignmentStatusReturned:
		return true
	default:
		return false
	}
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
