package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

func paymentIntentEvent(t *testing.T, eventType, piID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": piID})
	if err != nil {
		t.Fatalf("marshal payment intent: %v", err)
	}
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func newTestWebhook(repo *mockOrderRepo, gw *mockGateway) services.WebhookService {
	logger, _ := zap.NewDevelopment()
	return services.NewWebhookService(repo, gw, logger)
}

func TestHandleEvent_SucceededMarksOrderPaid(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260901-ABCD1234",
		PaymentStatus: models.PaymentStatusPending,
	}
	repo := &mockOrderRepo{findOrder: order}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "payment_intent.succeeded", "pi_1")}
	svc := newTestWebhook(repo, gw)

	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, order.ID, repo.updatedOrderID)
	assert.Equal(t, map[string]interface{}{"payment_status": models.PaymentStatusPaid}, repo.updates)
}

func TestHandleEvent_FailedMarksOrderAndPaymentFailed(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		PaymentStatus: models.PaymentStatusPending,
	}
	repo := &mockOrderRepo{findOrder: order}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "payment_intent.payment_failed", "pi_1")}
	svc := newTestWebhook(repo, gw)

	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Equal(t, map[string]interface{}{
		"payment_status": models.PaymentStatusFailed,
		"status":         models.OrderStatusFailed,
	}, repo.updates)
}

func TestHandleEvent_DuplicateDeliveryIsSkipped(t *testing.T) {
	cases := []struct {
		eventType string
		status    string
	}{
		{"payment_intent.succeeded", models.PaymentStatusPaid},
		{"payment_intent.payment_failed", models.PaymentStatusFailed},
	}
	for _, tc := range cases {
		repo := &mockOrderRepo{findOrder: &models.Order{ID: uuid.New(), PaymentStatus: tc.status}}
		gw := &mockGateway{webhookEvent: paymentIntentEvent(t, tc.eventType, "pi_1")}
		svc := newTestWebhook(repo, gw)

		svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
		assert.Nil(t, svcErr)
		assert.Zero(t, repo.updateCalls, "redelivered %s for a %s order must not update", tc.eventType, tc.status)
	}
}

func TestHandleEvent_FailedEventCorrectsPaidOrder(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		PaymentStatus: models.PaymentStatusPaid,
	}
	repo := &mockOrderRepo{findOrder: order}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "payment_intent.payment_failed", "pi_1")}
	svc := newTestWebhook(repo, gw)

	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, map[string]interface{}{
		"payment_status": models.PaymentStatusFailed,
		"status":         models.OrderStatusFailed,
	}, repo.updates)
}

func TestHandleEvent_MatchesIntentIDFromCheckout(t *testing.T) {
	// The id persisted at checkout must be the same id webhook lookups use.
	checkoutRepo := &mockOrderRepo{}
	svc := newTestCheckout(checkoutRepo, happyGateway(), testConfig())
	_, svcErr := svc.ProcessPayment(context.Background(), pizzaRequest(), "9.9.9.9", "go-test")
	assert.Nil(t, svcErr)

	placed := checkoutRepo.createdOrder
	placed.PaymentStatus = models.PaymentStatusPending

	webhookRepo := &mockOrderRepo{findOrder: placed}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "payment_intent.succeeded", placed.PaymentIntentID)}
	wh := newTestWebhook(webhookRepo, gw)

	svcErr = wh.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Equal(t, placed.PaymentIntentID, webhookRepo.lastFindID)
	assert.Equal(t, placed.ID, webhookRepo.updatedOrderID)
	assert.Equal(t, map[string]interface{}{"payment_status": models.PaymentStatusPaid}, webhookRepo.updates)
}

func TestHandleEvent_UnknownEventTypeIsAccepted(t *testing.T) {
	repo := &mockOrderRepo{}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "charge.refunded", "pi_1")}
	svc := newTestWebhook(repo, gw)

	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Zero(t, repo.updateCalls)
}

func TestHandleEvent_UnknownPaymentIntentIsAccepted(t *testing.T) {
	repo := &mockOrderRepo{findErr: errors.New("record not found")}
	gw := &mockGateway{webhookEvent: paymentIntentEvent(t, "payment_intent.succeeded", "pi_missing")}
	svc := newTestWebhook(repo, gw)

	// Missing orders are logged, not rejected, so the gateway stops retrying.
	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "sig")
	assert.Nil(t, svcErr)
	assert.Zero(t, repo.updateCalls)
}

func TestHandleEvent_BadSignatureRejected(t *testing.T) {
	repo := &mockOrderRepo{}
	gw := &mockGateway{webhookErr: errors.New("signature mismatch")}
	svc := newTestWebhook(repo, gw)

	svcErr := svc.HandleEvent(context.Background(), []byte("{}"), "bad-sig")
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Zero(t, repo.updateCalls)
}
