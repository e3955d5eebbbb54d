package model

import "errors"

// Webhook event types the service reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
)

// CreatePaymentIntentResponse carries the client-side secret for the
// checkout form. The amount is fixed server-side.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// WebhookEvent is the gateway-neutral view of a verified webhook delivery.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Email           string
}

var (
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrPaymentNotConfigured  = errors.New("payment gateway is not configured")
	ErrAlreadyPremium        = errors.New("account is already premium")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)
