package returns

import (
	"time"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

// Plan is a computed return transition. Refund marks plans that must also
// move the owning order's payment state to refunded.
type Plan struct {
	Action    enums.ReturnAction
	FromState enums.ReturnState
	NextState enums.ReturnState
	Refund    bool
}

type transitionKey struct {
	from   enums.ReturnState
	action enums.ReturnAction
}

var returnTransitions = map[transitionKey]enums.ReturnState{
	{enums.ReturnStateRequested, enums.ReturnActionApprove}:          enums.ReturnStateApproved,
	{enums.ReturnStateRequested, enums.ReturnActionReject}:           enums.ReturnStateRejected,
	{enums.ReturnStateApproved, enums.ReturnActionMarkReturned}:      enums.ReturnStateReturned,
	{enums.ReturnStateRequested, enums.ReturnActionAdminApprove}:     enums.ReturnStateApproved,
	{enums.ReturnStateRequested, enums.ReturnActionAdminReject}:      enums.ReturnStateRejected,
	{enums.ReturnStateApproved, enums.ReturnActionAdminMarkReturned}: enums.ReturnStateReturned,
	{enums.ReturnStateReturned, enums.ReturnActionForceRefund}:       enums.ReturnStateRefunded,
	// force_refund may short-circuit the physical return entirely.
	{enums.ReturnStateRequested, enums.ReturnActionForceRefund}: enums.ReturnStateRefunded,
	{enums.ReturnStateApproved, enums.ReturnActionForceRefund}:  enums.ReturnStateRefunded,
}

// PlanTransition computes the next return state for an action, without
// mutating anything. The caller persists the plan.
func PlanTransition(state enums.ReturnState, action enums.ReturnAction) (Plan, error) {
	next, ok := returnTransitions[transitionKey{from: state, action: action}]
	if !ok {
		return Plan{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "return transition not allowed").
			WithDetails(map[string]any{
				"fromState": state.String(),
				"action":    action.String(),
			})
	}
	return Plan{
		Action:    action,
		FromState: state,
		NextState: next,
		Refund:    next == enums.ReturnStateRefunded,
	}, nil
}

// Apply writes the planned state onto the return and stamps the matching
// timestamp.
func (p Plan) Apply(ret *models.Return, now time.Time) {
	ret.State = p.NextState
	switch p.NextState {
	case enums.ReturnStateApproved:
		ret.ApprovedAt = &now
	case enums.ReturnStateRejected:
		ret.RejectedAt = &now
	case enums.ReturnStateReturned:
		ret.ReturnedAt = &now
	case enums.ReturnStateRefunded:
		ret.RefundedAt = &now
	}
}
