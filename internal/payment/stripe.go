// Package payment wraps the hosted payment gateway.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

// Gateway creates payment intents and authenticates webhook deliveries.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (clientSecret string, err error)
	ParseWebhook(payload []byte, signatureHeader string) (*model.WebhookEvent, error)
}

// StripeGateway implements Gateway with stripe-go.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" || webhookSecret == "" {
		return nil, model.ErrPaymentNotConfigured
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

// ParseWebhook checks the Stripe-Signature header against the raw body.
// Only payment intent events are decoded further.
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*model.WebhookEvent, error) {
	return parseWebhook(payload, signatureHeader, g.webhookSecret)
}

func parseWebhook(payload []byte, signatureHeader, secret string) (*model.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) || errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidWebhookPayload, err)
	}

	out := &model.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidWebhookPayload, err)
	}
	if pi.Object == "payment_intent" {
		out.PaymentIntentID = pi.ID
		out.Email = pi.Metadata["email"]
	}
	return out, nil
}
