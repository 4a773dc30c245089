package assignments

import (
	"testing"

	"github.com/storekart/storekart-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to enums.AssignmentStatus
	}{
		{enums.AssignmentStatusUnassigned, enums.AssignmentStatusAssigned},
		{enums.AssignmentStatusAssigned, enums.AssignmentStatusPickedUp},
		{enums.AssignmentStatusAssigned, enums.AssignmentStatusFailed},
		{enums.AssignmentStatusPickedUp, enums.AssignmentStatusOutForDelivery},
		{enums.AssignmentStatusPickedUp, enums.AssignmentStatusFailed},
		{enums.AssignmentStatusOutForDelivery, enums.AssignmentStatusDelivered},
		{enums.AssignmentStatusOutForDelivery, enums.AssignmentStatusFailed},
		{enums.AssignmentStatusOutForDelivery, enums.AssignmentStatusReturned},
	}
	for _, edge := range allowed {
		if !CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be allowed", edge.from, edge.to)
		}
	}

	denied := []struct {
		from, to enums.AssignmentStatus
	}{
		{enums.AssignmentStatusUnassigned, enums.AssignmentStatusDelivered},
		{enums.AssignmentStatusUnassigned, enums.AssignmentStatusPickedUp},
		{enums.AssignmentStatusAssigned, enums.AssignmentStatusDelivered},
		{enums.AssignmentStatusAssigned, enums.AssignmentStatusReturned},
		{enums.AssignmentStatusPickedUp, enums.AssignmentStatusDelivered},
		{enums.AssignmentStatusDelivered, enums.AssignmentStatusFailed},
		{enums.AssignmentStatusFailed, enums.AssignmentStatusAssigned},
		{enums.AssignmentStatusReturned, enums.AssignmentStatusOutForDelivery},
		{enums.AssignmentStatusOutForDelivery, enums.AssignmentStatusAssigned},
	}
	for _, edge := range denied {
		if CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be denied", edge.from, edge.to)
		}
	}
}

func TestTerminalStatesAbsorb(t *testing.T) {
	terminals := []enums.AssignmentStatus{
		enums.AssignmentStatusDelivered,
		enums.AssignmentStatusFailed,
		enums.AssignmentStatusReturned,
	}
	for _, terminal := range terminals {
		if !terminal.IsTerminal() {
			t.Errorf("expected %s to be terminal", terminal)
		}
		if targets := AllowedTargets(terminal); len(targets) != 0 {
			t.Errorf("terminal %s should have no outgoing edges, got %v", terminal, targets)
		}
	}
}
