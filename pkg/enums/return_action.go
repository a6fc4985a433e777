package enums

import "fmt"

// ReturnAction names an operation a caller can request against a return.
type ReturnAction string

const (
	ReturnActionApprove           ReturnAction = "approve"
	ReturnActionReject            ReturnAction = "reject"
	ReturnActionMarkReturned      ReturnAction = "mark_returned"
	ReturnActionAdminApprove      ReturnAction = "admin_approve"
	ReturnActionAdminReject       ReturnAction = "admin_reject"
	ReturnActionAdminMarkReturned ReturnAction = "admin_mark_returned"
	ReturnActionForceRefund       ReturnAction = "force_refund"
)

var validReturnActions = []ReturnAction{
	ReturnActionApprove,
	ReturnActionReject,
	ReturnActionMarkReturned,
	ReturnActionAdminApprove,
	ReturnActionAdminReject,
	ReturnActionAdminMarkReturned,
	ReturnActionForceRefund,
}

var returnActionRoles = map[ReturnAction][]ActorRole{
	ReturnActionApprove:           {ActorRoleSeller},
	ReturnActionReject:            {ActorRoleSeller},
	ReturnActionMarkReturned:      {ActorRoleSeller},
	ReturnActionAdminApprove:      {ActorRoleAdmin},
	ReturnActionAdminReject:       {ActorRoleAdmin},
	ReturnActionAdminMarkReturned: {ActorRoleAdmin},
	ReturnActionForceRefund:       {ActorRoleAdmin},
}

// String implements fmt.Stringer.
func (a ReturnAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ReturnAction.
func (a ReturnAction) IsValid() bool {
	for _, candidate := range validReturnActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsAdministrative reports whether the action is an admin override that
// requires an explicit reason.
func (a ReturnAction) IsAdministrative() bool {
	switch a {
	case ReturnActionAdminApprove, ReturnActionAdminReject, ReturnActionAdminMarkReturned, ReturnActionForceRefund:
		return true
	}
	return false
}

// AllowsRole reports whether the given role may request this action.
func (a ReturnAction) AllowsRole(role ActorRole) bool {
	if role == ActorRoleAdmin && !a.IsAdministrative() {
		return true
	}
	for _, allowed := range returnActionRoles[a] {
		if allowed == role {
			return true
		}
	}
	return false
}

// ParseReturnAction converts raw input into a ReturnAction.
func ParseReturnAction(value string) (ReturnAction, error) {
	for _, candidate := range validReturnActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return action %q", value)
}
