package enums

import "fmt"

// ReturnState tracks the post-delivery return/refund sub-workflow.
type ReturnState string

const (
	ReturnStateRequested ReturnState = "requested"
	ReturnStateApproved  ReturnState = "approved"
	ReturnStateRejected  ReturnState = "rejected"
	ReturnStateReturned  ReturnState = "returned"
	ReturnStateRefunded  ReturnState = "refunded"
)

var validReturnStates = []ReturnState{
	ReturnStateRequested,
	ReturnStateApproved,
	ReturnStateRejected,
	ReturnStateReturned,
	ReturnStateRefunded,
}

// String implements fmt.Stringer.
func (r ReturnState) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnState.
func (r ReturnState) IsValid() bool {
	for _, candidate := range validReturnStates {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the return can no longer change state.
func (r ReturnState) IsTerminal() bool {
	return r == ReturnStateRejected || r == ReturnStateRefunded
}

// ParseReturnState converts raw input into a ReturnState.
func ParseReturnState(value string) (ReturnState, error) {
	for _, candidate := range validReturnStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return state %q", value)
}
