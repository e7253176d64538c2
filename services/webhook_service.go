package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/repository"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// WebhookService reconciles order payment state with gateway-confirmed
// outcomes delivered asynchronously.
type WebhookService interface {
	// HandleEvent verifies and applies one raw webhook delivery. A non-nil
	// error means the delivery must be rejected (bad signature); verified
	// events are always accepted, including unknown types, so at-least-once
	// redelivery never storms.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) *ServiceError
}

type webhookServiceImpl struct {
	repo    repository.OrderRepository
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewWebhookService(repo repository.OrderRepository, gateway PaymentGateway, logger *zap.Logger) WebhookService {
	return &webhookServiceImpl{repo: repo, gateway: gateway, logger: logger}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) *ServiceError {
	event, err := s.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return &ServiceError{
			Kind:       KindValidation,
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid webhook",
			Err:        err,
		}
	}

	switch event.Type {
	case "payment_intent.succeeded":
		s.applyPaymentStatus(ctx, event, models.PaymentStatusPaid)
	case "payment_intent.payment_failed":
		s.applyPaymentStatus(ctx, event, models.PaymentStatusFailed)
	default:
		s.logger.Info("Ignoring webhook event type", zap.String("event_type", string(event.Type)))
	}

	return nil
}

func (s *webhookServiceImpl) applyPaymentStatus(ctx context.Context, event stripe.Event, status string) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		s.logger.Error("Failed to unmarshal payment intent from webhook", zap.Error(err))
		return
	}

	order, err := s.repo.FindByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		s.logger.Warn("No order for webhook payment intent",
			zap.String("payment_intent_id", pi.ID),
			zap.Error(err),
		)
		return
	}

	// Redelivery of an already-applied outcome is a no-op. A different
	// outcome still applies, so a late payment_failed can correct an order
	// marked paid.
	if order.PaymentStatus == status {
		s.logger.Info("Skipping duplicate webhook delivery",
			zap.String("order_number", order.OrderNumber),
			zap.String("payment_status", order.PaymentStatus),
		)
		return
	}

	updates := map[string]interface{}{"payment_status": status}
	if status == models.PaymentStatusFailed {
		updates["status"] = models.OrderStatusFailed
	}

	if err := s.repo.UpdateOrderStatus(ctx, order.ID, updates); err != nil {
		s.logger.Error("Failed to update order from webhook",
			zap.String("order_number", order.OrderNumber),
			zap.String("payment_status", status),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Order payment status reconciled",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", status),
	)
}
