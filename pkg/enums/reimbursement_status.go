package enums

import "fmt"

// ReimbursementStatus tracks a ledger entry from creation to settlement.
// Every settled status is terminal; recomputation must never touch it.
type ReimbursementStatus string

const (
	ReimbursementStatusUnpaid    ReimbursementStatus = "unpaid"
	ReimbursementStatusPaid      ReimbursementStatus = "paid"
	ReimbursementStatusCompleted ReimbursementStatus = "completed"
	ReimbursementStatusSettled   ReimbursementStatus = "settled"
)

var validReimbursementStatuses = []ReimbursementStatus{
	ReimbursementStatusUnpaid,
	ReimbursementStatusPaid,
	ReimbursementStatusCompleted,
	ReimbursementStatusSettled,
}

// String implements fmt.Stringer.
func (r ReimbursementStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReimbursementStatus.
func (r ReimbursementStatus) IsValid() bool {
	for _, candidate := range validReimbursementStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsSettled reports whether the entry has reached a terminal settled state.
func (r ReimbursementStatus) IsSettled() bool {
	switch r {
	case ReimbursementStatusPaid, ReimbursementStatusCompleted, ReimbursementStatusSettled:
		return true
	default:
		return false
	}
}

// ParseReimbursementStatus converts raw input into a ReimbursementStatus.
func ParseReimbursementStatus(value string) (ReimbursementStatus, error) {
	for _, candidate := range validReimbursementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reimbursement status %q", value)
}

// ParseSettlementTarget accepts only the statuses a settlement request may
// move an unpaid reimbursement into.
func ParseSettlementTarget(value string) (ReimbursementStatus, error) {
	status, err := ParseReimbursementStatus(value)
	if err != nil {
		return "", err
	}
	if !status.IsSettled() {
		return "", fmt.Errorf("status must be one of: paid, completed, settled")
	}
	return status, nil
}
