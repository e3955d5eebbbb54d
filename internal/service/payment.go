package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/cache"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/payment"
)

// PaymentService sells the one-off premium upgrade.
type PaymentService struct {
	gateway  payment.Gateway
	accounts *AccountService
	deduper  cache.Deduper
	log      *logger.Logger

	priceMinor int64
	currency   string
}

// NewPaymentService accepts a nil gateway; every call then fails with ErrPaymentNotConfigured.
func NewPaymentService(
	gateway payment.Gateway,
	accounts *AccountService,
	deduper cache.Deduper,
	log *logger.Logger,
	priceMinor int64,
	currency string,
) *PaymentService {
	if deduper == nil {
		deduper = cache.NoopDeduper{}
	}
	return &PaymentService{
		gateway:    gateway,
		accounts:   accounts,
		deduper:    deduper,
		log:        log,
		priceMinor: priceMinor,
		currency:   currency,
	}
}

// CreateIntent starts a checkout at the server-side price. The caller's
// email travels in the intent metadata and comes back in the webhook.
func (s *PaymentService) CreateIntent(ctx context.Context, callerEmail string) (*model.CreatePaymentIntentResponse, error) {
	if s.gateway == nil {
		return nil, model.ErrPaymentNotConfigured
	}
	account, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if account.IsPremium {
		return nil, model.ErrAlreadyPremium
	}

	secret, err := s.gateway.CreatePaymentIntent(ctx, s.priceMinor, s.currency, map[string]string{
		"email": account.Email,
	})
	if err != nil {
		return nil, err
	}
	return &model.CreatePaymentIntentResponse{
		ClientSecret: secret,
		Amount:       s.priceMinor,
		Currency:     s.currency,
	}, nil
}

// HandleWebhook verifies a delivery and upgrades the buyer on success.
// Repeated deliveries of the same event are acknowledged without work.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return model.ErrPaymentNotConfigured
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.Type != model.EventPaymentSucceeded {
		s.log.Debug("ignoring webhook event", "event_id", event.ID, "type", event.Type)
		return nil
	}
	if event.Email == "" {
		return fmt.Errorf("%w: payment intent %s has no email metadata", model.ErrInvalidWebhookPayload, event.PaymentIntentID)
	}

	first, err := s.deduper.FirstSeen(ctx, event.ID)
	if err != nil {
		// Without the dedupe record we still process; the upgrade is idempotent.
		s.log.Warn("webhook dedupe unavailable", "event_id", event.ID, "error", err)
		first = true
	}
	if !first {
		s.log.Info("duplicate webhook delivery", "event_id", event.ID)
		return nil
	}

	if err := s.accounts.MarkPremium(ctx, event.Email); err != nil {
		if forgetErr := s.deduper.Forget(ctx, event.ID); forgetErr != nil {
			s.log.Warn("failed to release webhook dedupe key", "event_id", event.ID, "error", forgetErr)
		}
		if errors.Is(err, model.ErrAccountNotFound) {
			s.log.Warn("payment for unknown account", "event_id", event.ID, "email", event.Email)
		}
		return err
	}

	s.log.Info("account upgraded to premium", "email", event.Email, "payment_intent", event.PaymentIntentID)
	return nil
}
