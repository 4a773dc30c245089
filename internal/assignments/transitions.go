package assignments

import "github.com/storekart/storekart-backend/pkg/enums"

// transitionTable is the closed set of legal status edges. Terminal states
// have no outgoing edges and absorb every further request.
var transitionTable = map[enums.AssignmentStatus][]enums.AssignmentStatus{
	enums.AssignmentStatusUnassigned: {
		enums.AssignmentStatusAssigned,
	},
	enums.AssignmentStatusAssigned: {
		enums.AssignmentStatusPickedUp,
		enums.AssignmentStatusFailed,
	},
	enums.AssignmentStatusPickedUp: {
		enums.AssignmentStatusOutForDelivery,
		enums.AssignmentStatusFailed,
	},
	enums.AssignmentStatusOutForDelivery: {
		enums.AssignmentStatusDelivered,
		enums.AssignmentStatusFailed,
		enums.AssignmentStatusReturned,
	},
}

// CanTransition reports whether the edge from→to exists in the status machine.
func CanTransition(from, to enums.AssignmentStatus) bool {
	for _, allowed := range transitionTable[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the legal next statuses from the given state.
func AllowedTargets(from enums.AssignmentStatus) []enums.AssignmentStatus {
	targets := transitionTable[from]
	out := make([]enums.AssignmentStatus, len(targets))
	copy(out, targets)
	return out
}
