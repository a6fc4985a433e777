package enums

import "fmt"

// AuditMachine discriminates which state machine produced an audit entry.
type AuditMachine string

const (
	AuditMachineOrder   AuditMachine = "order"
	AuditMachineReturn  AuditMachine = "return"
	AuditMachinePayment AuditMachine = "payment"
)

var validAuditMachines = []AuditMachine{
	AuditMachineOrder,
	AuditMachineReturn,
	AuditMachinePayment,
}

func (m AuditMachine) String() string {
	return string(m)
}

func (m AuditMachine) IsValid() bool {
	for _, candidate := range validAuditMachines {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseAuditMachine converts raw input into an AuditMachine.
func ParseAuditMachine(value string) (AuditMachine, error) {
	for _, candidate := range validAuditMachines {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit machine %q", value)
}

// AuditOutcome records whether an audited attempt mutated state.
type AuditOutcome string

const (
	AuditOutcomeApplied  AuditOutcome = "applied"
	AuditOutcomeRejected AuditOutcome = "rejected"
)

func (o AuditOutcome) String() string {
	return string(o)
}

func (o AuditOutcome) IsValid() bool {
	return o == AuditOutcomeApplied || o == AuditOutcomeRejected
}
