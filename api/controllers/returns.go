package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rafaelortiz/tradeyard-backend/api/responses"
	"github.com/rafaelortiz/tradeyard-backend/api/validators"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
)

type ReturnsController struct {
	svc  gateway.Service
	logg *logger.Logger
}

func NewReturnsController(svc gateway.Service, logg *logger.Logger) *ReturnsController {
	return &ReturnsController{svc: svc, logg: logg}
}

type createReturnRequest struct {
	Amount string `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

func (c *ReturnsController) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderID, err := validators.ParseUUIDParam("orderId", chi.URLParam(r, "orderId"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req createReturnRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	amountCents, err := orders.DecimalStringToCents(req.Amount)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a decimal amount"))
		return
	}

	view, err := c.svc.CreateReturn(r.Context(), gateway.CreateReturnInput{
		OrderID:     orderID,
		Actor:       actor,
		AmountCents: amountCents,
		Reason:      req.Reason,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, view)
}

func (c *ReturnsController) RequestTransition(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	returnID, err := validators.ParseUUIDParam("returnId", chi.URLParam(r, "returnId"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req transitionRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	action, err := enums.ParseReturnAction(req.Action)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown return action"))
		return
	}

	view, err := c.svc.RequestReturnTransition(r.Context(), gateway.ReturnTransitionInput{
		ReturnID: returnID,
		Action:   action,
		Actor:    actor,
		Reason:   req.Reason,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, view)
}
