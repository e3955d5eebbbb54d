package handler

import (
	"io"
	"net/http"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
)

// maxWebhookBody mirrors the gateway's documented payload ceiling.
const maxWebhookBody = 65536

type PaymentHandler struct {
	payments *service.PaymentService
	log      *logger.Logger
}

func NewPaymentHandler(payments *service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

// CreateIntent handles POST /create-payment-intent
// The price is fixed server-side; any amount in the body is ignored.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	res, err := h.payments.CreateIntent(r.Context(), id.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create payment intent", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Webhook handles POST /webhook
// The signature covers the raw body, so it is read before any decoding.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read webhook body")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeServiceError(w, h.log, err, "Failed to process webhook")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
