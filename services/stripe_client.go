package services

import (
	"context"
	"strings"

	"github.com/issamdi/food-ordering-website/models"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/paymentmethod"
	"github.com/stripe/stripe-go/v80/webhook"
)

// IntentParams carries everything a confirmed payment intent needs.
// AmountMinor is in the currency's minor units.
type IntentParams struct {
	AmountMinor  int64
	Currency     string
	CustomerID   string
	Token        string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

// IntentResult is the gateway's view of a confirmed payment intent. ID is the
// gateway-assigned intent id; webhook deliveries for this payment carry the
// same id, so it is the reconciliation key.
type IntentResult struct {
	ID     string
	Status string
}

// PaymentGateway is the narrow interface the checkout flow needs from the
// payment provider.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, details models.CustomerDetails, orderNumber string) (string, error)
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*IntentResult, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeService implements PaymentGateway against the Stripe API.
type StripeService struct {
	webhookSecret  string
	restaurantName string
}

func NewStripeService(secretKey, webhookSecret, restaurantName string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{webhookSecret: webhookSecret, restaurantName: restaurantName}
}

func (s *StripeService) CreateCustomer(ctx context.Context, details models.CustomerDetails, orderNumber string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(details.Email),
		Name:  stripe.String(details.Name),
		Phone: stripe.String(details.Phone),
		Address: &stripe.AddressParams{
			Line1: stripe.String(details.Address),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_type", "food_delivery")
	params.AddMetadata("restaurant", s.restaurantName)
	params.AddMetadata("order_number", orderNumber)

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreatePaymentIntent exchanges the card token for a payment method and
// creates a manually-confirmed intent in one round trip, so the returned
// intent is already charged (or has already failed).
func (s *StripeService) CreatePaymentIntent(ctx context.Context, p IntentParams) (*IntentResult, error) {
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{Token: stripe.String(p.Token)},
	}
	pmParams.Context = ctx
	pm, err := paymentmethod.New(pmParams)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(p.AmountMinor),
		Currency:           stripe.String(strings.ToLower(p.Currency)),
		Customer:           stripe.String(p.CustomerID),
		PaymentMethod:      stripe.String(pm.ID),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodManual)),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(p.Description),
		ReceiptEmail:       stripe.String(p.ReceiptEmail),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &IntentResult{ID: pi.ID, Status: string(pi.Status)}, nil
}

func (s *StripeService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
}
