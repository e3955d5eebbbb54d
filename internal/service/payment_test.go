package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

// fakeGateway returns the configured event for any payload and records intents.
type fakeGateway struct {
	event    *model.WebhookEvent
	parseErr error

	amount   int64
	currency string
	metadata map[string]string
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (string, error) {
	g.amount, g.currency, g.metadata = amountMinor, currency, metadata
	return "pi_secret_123", nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*model.WebhookEvent, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

func newPaymentFixture(gateway *fakeGateway) (*PaymentService, *accountFixture) {
	accounts := newAccountFixture(
		&model.Account{UID: "uid-ada", Email: "ada@example.com", Role: model.RoleUser},
		&model.Account{UID: "uid-pro", Email: "pro@example.com", Role: model.RoleUser, IsPremium: true},
	)
	svc := NewPaymentService(gateway, accounts.svc, &memDeduper{}, logger.Nop(), 1500, "usd")
	return svc, accounts
}

func succeeded(id, email string) *model.WebhookEvent {
	return &model.WebhookEvent{ID: id, Type: model.EventPaymentSucceeded, PaymentIntentID: "pi_1", Email: email}
}

func TestPaymentService_CreateIntent_UsesServerPrice(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newPaymentFixture(gateway)

	res, err := svc.CreateIntent(context.Background(), "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, "pi_secret_123", res.ClientSecret)
	assert.Equal(t, int64(1500), res.Amount)
	assert.Equal(t, int64(1500), gateway.amount)
	assert.Equal(t, "usd", gateway.currency)
	assert.Equal(t, map[string]string{"email": "ada@example.com"}, gateway.metadata)
}

func TestPaymentService_CreateIntent_AlreadyPremium(t *testing.T) {
	svc, _ := newPaymentFixture(&fakeGateway{})

	_, err := svc.CreateIntent(context.Background(), "pro@example.com")
	assert.ErrorIs(t, err, model.ErrAlreadyPremium)
}

func TestPaymentService_NotConfigured(t *testing.T) {
	accounts := newAccountFixture()
	svc := NewPaymentService(nil, accounts.svc, nil, logger.Nop(), 1500, "usd")

	_, err := svc.CreateIntent(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, model.ErrPaymentNotConfigured)

	err = svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	assert.ErrorIs(t, err, model.ErrPaymentNotConfigured)
}

func TestPaymentService_Webhook_UpgradesOnce(t *testing.T) {
	gateway := &fakeGateway{event: succeeded("evt_1", "ada@example.com")}
	svc, accounts := newPaymentFixture(gateway)
	ctx := context.Background()

	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))

	stored, err := accounts.repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsPremium)
	assert.Len(t, accounts.publisher.Events(), 1, "duplicate delivery does no work")
}

func TestPaymentService_Webhook_IgnoresOtherEvents(t *testing.T) {
	gateway := &fakeGateway{event: &model.WebhookEvent{ID: "evt_2", Type: "payment_intent.created", Email: "ada@example.com"}}
	svc, accounts := newPaymentFixture(gateway)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	stored, err := accounts.repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsPremium)
}

func TestPaymentService_Webhook_Rejections(t *testing.T) {
	svc, _ := newPaymentFixture(&fakeGateway{parseErr: model.ErrInvalidSignature})
	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.ErrorIs(t, err, model.ErrInvalidSignature)

	svc, _ = newPaymentFixture(&fakeGateway{event: succeeded("evt_3", "")})
	err = svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	assert.ErrorIs(t, err, model.ErrInvalidWebhookPayload)
}

func TestPaymentService_Webhook_UnknownAccountCanRetry(t *testing.T) {
	gateway := &fakeGateway{event: succeeded("evt_4", "late@example.com")}
	svc, accounts := newPaymentFixture(gateway)
	ctx := context.Background()

	err := svc.HandleWebhook(ctx, []byte("{}"), "sig")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	_, err = accounts.repo.Create(ctx, &model.Account{UID: "uid-late", Email: "late@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"), "dedupe key was released")
	stored, err := accounts.repo.GetByEmail(ctx, "late@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsPremium)
}
