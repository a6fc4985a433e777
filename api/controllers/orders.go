package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/api/middleware"
	"github.com/rafaelortiz/tradeyard-backend/api/responses"
	"github.com/rafaelortiz/tradeyard-backend/api/validators"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

type OrdersController struct {
	svc  gateway.Service
	logg *logger.Logger
}

func NewOrdersController(svc gateway.Service, logg *logger.Logger) *OrdersController {
	return &OrdersController{svc: svc, logg: logg}
}

type createOrderRequest struct {
	SellerID string `json:"sellerId" validate:"required,uuid"`
	Total    string `json:"total" validate:"required"`
	Currency string `json:"currency" validate:"required"`
}

type transitionRequest struct {
	Action string  `json:"action" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

// actorFromRequest rebuilds the acting identity seeded by the auth middleware.
func actorFromRequest(r *http.Request) (gateway.Actor, error) {
	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return gateway.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	actor := gateway.Actor{Role: role}
	if raw := middleware.ActorIDFromContext(r.Context()); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return gateway.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		actor.ID = &id
	}
	return actor, nil
}

func (c *OrdersController) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if actor.Role != enums.ActorRoleBuyer || actor.ID == nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers can place orders"))
		return
	}

	var req createOrderRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	sellerID, err := validators.ParseUUIDParam("sellerId", req.SellerID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	totalCents, err := orders.DecimalStringToCents(req.Total)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "total must be a decimal amount"))
		return
	}
	currency, err := enums.ParseCurrency(req.Currency)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency"))
		return
	}

	snapshot, err := c.svc.CreateOrder(r.Context(), gateway.CreateOrderInput{
		BuyerID:    *actor.ID,
		SellerID:   sellerID,
		TotalCents: totalCents,
		Currency:   currency,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
}

func (c *OrdersController) RequestTransition(w http.ResponseWriter, r *http.Request) {
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

	var req transitionRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	action, err := enums.ParseOrderAction(req.Action)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order action"))
		return
	}

	snapshot, err := c.svc.RequestOrderTransition(r.Context(), gateway.OrderTransitionInput{
		OrderID: orderID,
		Action:  action,
		Actor:   actor,
		Reason:  req.Reason,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot)
}

func (c *OrdersController) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	orderID, err := validators.ParseUUIDParam("orderId", chi.URLParam(r, "orderId"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	snapshot, err := c.svc.GetOrderSnapshot(r.Context(), orderID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot)
}

func (c *OrdersController) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	orderID, err := validators.ParseUUIDParam("orderId", chi.URLParam(r, "orderId"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	view, err := c.svc.ListAuditLog(r.Context(), orderID, pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, view)
}
