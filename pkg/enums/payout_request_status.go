package enums

import "fmt"

// PayoutRequestStatus tracks the admin review lifecycle of a payout request.
type PayoutRequestStatus string

const (
	PayoutRequestStatusPending  PayoutRequestStatus = "pending"
	PayoutRequestStatusApproved PayoutRequestStatus = "approved"
	PayoutRequestStatusPaid     PayoutRequestStatus = "paid"
	PayoutRequestStatusRejected PayoutRequestStatus = "rejected"
)

var validPayoutRequestStatuses = []PayoutRequestStatus{
	PayoutRequestStatusPending,
	PayoutRequestStatusApproved,
	PayoutRequestStatusPaid,
	PayoutRequestStatusRejected,
}

// String implements fmt.Stringer.
func (p PayoutRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutRequestStatus.
func (p PayoutRequestStatus) IsValid() bool {
	for _, candidate := range validPayoutRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request can no longer change state.
func (p PayoutRequestStatus) IsTerminal() bool {
	return p == PayoutRequestStatusPaid || p == PayoutRequestStatusRejected
}

// ParsePayoutRequestStatus converts raw input into a PayoutRequestStatus.
func ParsePayoutRequestStatus(value string) (PayoutRequestStatus, error) {
	for _, candidate := range validPayoutRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout request status %q", value)
}
