package returns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

func TestReturnTransitions(t *testing.T) {
	tests := []struct {
		name       string
		state      enums.ReturnState
		action     enums.ReturnAction
		wantState  enums.ReturnState
		wantRefund bool
	}{
		{"approve", enums.ReturnStateRequested, enums.ReturnActionApprove, enums.ReturnStateApproved, false},
		{"reject", enums.ReturnStateRequested, enums.ReturnActionReject, enums.ReturnStateRejected, false},
		{"mark returned", enums.ReturnStateApproved, enums.ReturnActionMarkReturned, enums.ReturnStateReturned, false},
		{"admin approve", enums.ReturnStateRequested, enums.ReturnActionAdminApprove, enums.ReturnStateApproved, false},
		{"admin reject", enums.ReturnStateRequested, enums.ReturnActionAdminReject, enums.ReturnStateRejected, false},
		{"admin mark returned", enums.ReturnStateApproved, enums.ReturnActionAdminMarkReturned, enums.ReturnStateReturned, false},
		{"refund after return", enums.ReturnStateReturned, enums.ReturnActionForceRefund, enums.ReturnStateRefunded, true},
		{"refund override from requested", enums.ReturnStateRequested, enums.ReturnActionForceRefund, enums.ReturnStateRefunded, true},
		{"refund override from approved", enums.ReturnStateApproved, enums.ReturnActionForceRefund, enums.ReturnStateRefunded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanTransition(tt.state, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.state, plan.FromState)
			assert.Equal(t, tt.wantState, plan.NextState)
			assert.Equal(t, tt.wantRefund, plan.Refund)
		})
	}
}

func TestReturnTransitionsRejected(t *testing.T) {
	tests := []struct {
		state  enums.ReturnState
		action enums.ReturnAction
	}{
		{enums.ReturnStateRequested, enums.ReturnActionMarkReturned},
		{enums.ReturnStateApproved, enums.ReturnActionApprove},
		{enums.ReturnStateApproved, enums.ReturnActionReject},
		{enums.ReturnStateRejected, enums.ReturnActionApprove},
		{enums.ReturnStateRejected, enums.ReturnActionForceRefund},
		{enums.ReturnStateRefunded, enums.ReturnActionForceRefund},
		{enums.ReturnStateReturned, enums.ReturnActionApprove},
	}
	for _, tt := range tests {
		_, err := PlanTransition(tt.state, tt.action)
		require.Error(t, err, "%s from %s", tt.action, tt.state)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
	}
}
