package enums

import "fmt"

// OrderAction names an operation a caller can request against an order.
type OrderAction string

const (
	OrderActionAccept           OrderAction = "accept"
	OrderActionConfirm          OrderAction = "confirm"
	OrderActionShip             OrderAction = "ship"
	OrderActionDeliver          OrderAction = "deliver"
	OrderActionComplete         OrderAction = "complete"
	OrderActionCancel           OrderAction = "cancel"
	OrderActionForceDeliver     OrderAction = "force_deliver"
	OrderActionRollbackDelivery OrderAction = "rollback_delivery"
)

var validOrderActions = []OrderAction{
	OrderActionAccept,
	OrderActionConfirm,
	OrderActionShip,
	OrderActionDeliver,
	OrderActionComplete,
	OrderActionCancel,
	OrderActionForceDeliver,
	OrderActionRollbackDelivery,
}

// orderActionRoles lists which actor roles may request each action. Admin
// actors may additionally request any non-administrative action.
var orderActionRoles = map[OrderAction][]ActorRole{
	OrderActionAccept:           {ActorRoleSeller},
	OrderActionConfirm:          {ActorRoleSeller},
	OrderActionShip:             {ActorRoleSeller},
	OrderActionDeliver:          {ActorRoleSeller},
	OrderActionComplete:         {ActorRoleBuyer, ActorRoleSystem},
	OrderActionCancel:           {ActorRoleBuyer, ActorRoleSeller},
	OrderActionForceDeliver:     {ActorRoleAdmin},
	OrderActionRollbackDelivery: {ActorRoleAdmin},
}

// String implements fmt.Stringer.
func (a OrderAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OrderAction.
func (a OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsAdministrative reports whether the action is an admin override that
// requires an explicit reason.
func (a OrderAction) IsAdministrative() bool {
	return a == OrderActionForceDeliver || a == OrderActionRollbackDelivery
}

// AllowsRole reports whether the given role may request this action.
func (a OrderAction) AllowsRole(role ActorRole) bool {
	if role == ActorRoleAdmin && !a.IsAdministrative() {
		return true
	}
	for _, allowed := range orderActionRoles[a] {
		if allowed == role {
			return true
		}
	}
	return false
}

// ParseOrderAction converts raw input into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
