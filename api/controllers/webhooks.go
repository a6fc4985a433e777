package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/rafaelortiz/tradeyard-backend/api/responses"
	"github.com/rafaelortiz/tradeyard-backend/api/validators"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Webhook-Token"

// WebhooksController receives callbacks from the payment processor.
type WebhooksController struct {
	svc  gateway.Service
	cfg  config.WebhookConfig
	logg *logger.Logger
}

func NewWebhooksController(svc gateway.Service, cfg config.WebhookConfig, logg *logger.Logger) *WebhooksController {
	return &WebhooksController{svc: svc, cfg: cfg, logg: logg}
}

type paymentFailureRequest struct {
	OrderID string  `json:"orderId" validate:"required,uuid"`
	Reason  *string `json:"reason,omitempty"`
}

func (c *WebhooksController) PaymentFailed(w http.ResponseWriter, r *http.Request) {
	if !c.verifyToken(r) {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook token"))
		return
	}

	var req paymentFailureRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderID, err := validators.ParseUUIDParam("orderId", req.OrderID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	snapshot, err := c.svc.RecordPaymentFailure(r.Context(), gateway.PaymentFailureInput{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot)
}

func (c *WebhooksController) verifyToken(r *http.Request) bool {
	if c.cfg.Token == "" {
		return false
	}
	provided := r.Header.Get(webhookSignatureHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(c.cfg.Token)) == 1
}
