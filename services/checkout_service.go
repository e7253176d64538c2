package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/issamdi/food-ordering-website/config"
	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/repository"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// Audit outcomes recorded in transaction_logs.
const (
	outcomeSucceeded              = "succeeded"
	outcomeFailed                 = "failed"
	outcomeReconciliationRequired = "reconciliation_required"
)

// RateLimiter gates submission attempts per client identifier.
type RateLimiter interface {
	Check(identifier string) bool
}

// CheckoutService is the transactional core of the ordering site: it turns a
// validated payment request into a charged card and a persisted order.
type CheckoutService interface {
	ProcessPayment(ctx context.Context, req *models.PaymentRequest, clientIP, userAgent string) (*models.PaymentResult, *ServiceError)
}

type checkoutServiceImpl struct {
	repo    repository.OrderRepository
	gateway PaymentGateway
	limiter RateLimiter
	emails  EmailSender

	currency       string
	taxRate        decimal.Decimal
	deliveryFee    decimal.Decimal
	minOrderAmount decimal.Decimal
	gatewayTimeout time.Duration
	restaurantName string
	production     bool

	logger *zap.Logger
}

// NewCheckoutService wires the checkout flow. emails may be nil, in which
// case no confirmation is sent.
func NewCheckoutService(
	repo repository.OrderRepository,
	gateway PaymentGateway,
	limiter RateLimiter,
	emails EmailSender,
	cfg *config.Config,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		repo:           repo,
		gateway:        gateway,
		limiter:        limiter,
		emails:         emails,
		currency:       cfg.Currency,
		taxRate:        cfg.TaxRate,
		deliveryFee:    cfg.DeliveryFee,
		minOrderAmount: cfg.MinOrderAmount,
		gatewayTimeout: cfg.GatewayTimeout,
		restaurantName: cfg.RestaurantName,
		production:     cfg.IsProduction(),
		logger:         logger,
	}
}

// ProcessPayment validates the request, charges the card, and records the
// order, its line items, and the audit entry atomically. The charge amount is
// always the server-recomputed total; a client-submitted amount that
// disagrees is rejected before any gateway call.
func (s *checkoutServiceImpl) ProcessPayment(ctx context.Context, req *models.PaymentRequest, clientIP, userAgent string) (*models.PaymentResult, *ServiceError) {
	if !s.limiter.Check(clientIP) {
		return nil, &ServiceError{
			Kind:       KindRateLimited,
			StatusCode: http.StatusTooManyRequests,
			Message:    "Too many requests. Please try again later.",
		}
	}

	token := SanitizeInput(req.Token)
	if token == "" {
		return nil, validationError("Missing required field: token")
	}

	cust, svcErr := s.sanitizeCustomer(&req.Customer)
	if svcErr != nil {
		return nil, svcErr
	}

	items, subtotal, svcErr := s.sanitizeItems(req.Items)
	if svcErr != nil {
		return nil, svcErr
	}

	tax := subtotal.Mul(s.taxRate)
	total := subtotal.Add(tax).Add(s.deliveryFee)
	totalMinor := toMinorUnits(total)

	// The client's amount is advisory only; it must match the recomputed
	// total at minor-unit precision or the request is treated as tampered.
	claimedMinor := toMinorUnits(decimal.NewFromFloat(req.Amount))
	if claimedMinor != totalMinor {
		return nil, validationError("Submitted amount does not match the order total")
	}

	if totalMinor < toMinorUnits(s.minOrderAmount) {
		return nil, validationError(fmt.Sprintf("Amount must be at least $%s", s.minOrderAmount.StringFixed(2)))
	}

	orderNumber, err := generateOrderNumber()
	if err != nil {
		return nil, s.internalError("Failed to generate order number", err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	customerID, err := s.gateway.CreateCustomer(gctx, *cust, orderNumber)
	if err != nil {
		svcErr := s.classifyGatewayError(err)
		s.auditFailure(ctx, "", cust.Email, totalMinor, clientIP, userAgent)
		return nil, svcErr
	}

	intent, err := s.gateway.CreatePaymentIntent(gctx, IntentParams{
		AmountMinor:  totalMinor,
		Currency:     s.currency,
		CustomerID:   customerID,
		Token:        token,
		Description:  "Food order from " + s.restaurantName,
		ReceiptEmail: cust.Email,
		Metadata: map[string]string{
			"order_number":   orderNumber,
			"customer_name":  cust.Name,
			"customer_email": cust.Email,
			"items_count":    strconv.Itoa(len(items)),
		},
	})
	if err != nil {
		svcErr := s.classifyGatewayError(err)
		s.auditFailure(ctx, "", cust.Email, totalMinor, clientIP, userAgent)
		return nil, svcErr
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		PaymentIntentID: intent.ID,
		CustomerName:    cust.Name,
		CustomerEmail:   cust.Email,
		CustomerPhone:   cust.Phone,
		DeliveryAddress: cust.Address,
		Subtotal:        toMinorUnits(subtotal),
		TaxAmount:       toMinorUnits(tax),
		DeliveryFee:     toMinorUnits(s.deliveryFee),
		TotalAmount:     totalMinor,
		Status:          models.OrderStatusConfirmed,
		PaymentStatus:   models.PaymentStatusPaid,
		Items:           items,
	}
	logEntry := &models.TransactionLog{
		PaymentIntentID: intent.ID,
		CustomerEmail:   cust.Email,
		Amount:          totalMinor,
		Currency:        s.currency,
		Outcome:         outcomeSucceeded,
		IPAddress:       clientIP,
		UserAgent:       userAgent,
	}

	if err := s.repo.CreateOrderWithLog(ctx, order, logEntry); err != nil {
		// The charge went through but the record did not: this cannot be
		// reported as an ordinary failure, money has moved.
		s.logger.Error("Reconciliation required: charge succeeded but order persistence failed",
			zap.String("order_number", orderNumber),
			zap.String("payment_intent_id", intent.ID),
			zap.Int64("amount_minor", totalMinor),
			zap.String("customer_email", cust.Email),
			zap.Error(err),
		)
		s.auditReconciliation(ctx, intent.ID, cust.Email, totalMinor, clientIP, userAgent)
		return nil, &ServiceError{
			Kind:       KindReconciliationRequired,
			StatusCode: http.StatusInternalServerError,
			Message:    "Payment was received but the order could not be recorded. Please contact support.",
			Err:        err,
		}
	}

	if s.emails != nil {
		if err := s.emails.SendOrderConfirmation(cust.Email, orderNumber, total); err != nil {
			s.logger.Warn("Failed to send order confirmation email",
				zap.String("order_number", orderNumber),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Payment processed successfully",
		zap.String("order_number", orderNumber),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount_minor", totalMinor),
		zap.String("customer_email", cust.Email),
	)

	return &models.PaymentResult{
		OrderID:         order.ID.String(),
		OrderNumber:     orderNumber,
		PaymentIntentID: intent.ID,
		CustomerID:      customerID,
		Amount:          total.InexactFloat64(),
	}, nil
}

func (s *checkoutServiceImpl) sanitizeCustomer(raw *models.CustomerDetails) (*models.CustomerDetails, *ServiceError) {
	cust := &models.CustomerDetails{
		Name:    SanitizeInput(raw.Name),
		Email:   SanitizeInput(raw.Email),
		Phone:   SanitizeInput(raw.Phone),
		Address: SanitizeInput(raw.Address),
	}
	if cust.Name == "" || cust.Email == "" || cust.Phone == "" || cust.Address == "" {
		return nil, validationError("Missing required customer details")
	}
	if !ValidEmail(cust.Email) {
		return nil, validationError("Invalid email address")
	}
	phone, ok := NormalizePhone(cust.Phone)
	if !ok {
		return nil, validationError("Invalid phone number")
	}
	cust.Phone = phone
	return cust, nil
}

func (s *checkoutServiceImpl) sanitizeItems(raw []models.CartItemPayload) ([]models.OrderItem, decimal.Decimal, *ServiceError) {
	if len(raw) == 0 {
		return nil, decimal.Zero, validationError("Missing required field: items")
	}

	items := make([]models.OrderItem, 0, len(raw))
	subtotal := decimal.Zero
	for _, it := range raw {
		name := SanitizeInput(it.Title)
		if name == "" {
			return nil, decimal.Zero, validationError("Item name is required")
		}
		if it.Quantity < 1 {
			return nil, decimal.Zero, validationError("Item quantity must be at least 1")
		}
		price := decimal.NewFromFloat(it.Price)
		if !price.IsPositive() {
			return nil, decimal.Zero, validationError("Item price must be positive")
		}

		lineTotal := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			FoodName:  name,
			FoodPrice: toMinorUnits(price),
			Quantity:  it.Quantity,
			ItemTotal: toMinorUnits(lineTotal),
		})
	}
	return items, subtotal, nil
}

// classifyGatewayError maps a gateway failure onto the error taxonomy. Card
// declines surface the gateway's own message; everything else stays generic
// so gateway internals and credentials never reach the client.
func (s *checkoutServiceImpl) classifyGatewayError(err error) *ServiceError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Type == stripe.ErrorTypeCard:
			s.logger.Warn("Card declined", zap.String("code", string(stripeErr.Code)), zap.Error(err))
			return &ServiceError{
				Kind:       KindCardDeclined,
				StatusCode: http.StatusBadRequest,
				Message:    "Card declined: " + stripeErr.Msg,
				Err:        err,
			}
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			s.logger.Error("Gateway authentication failed", zap.Error(err))
			return &ServiceError{
				Kind:       KindGatewayAuthFailure,
				StatusCode: http.StatusServiceUnavailable,
				Message:    "Payment system unavailable",
				Err:        err,
			}
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			s.logger.Error("Invalid gateway request", zap.Error(err))
			return &ServiceError{
				Kind:       KindGatewayRequestInvalid,
				StatusCode: http.StatusBadRequest,
				Message:    s.clientMessage("Invalid payment request", err),
				Err:        err,
			}
		}
	}

	s.logger.Error("Gateway connectivity failure", zap.Error(err))
	return &ServiceError{
		Kind:       KindGatewayConnectivity,
		StatusCode: http.StatusBadGateway,
		Message:    "Payment system unavailable. Please try again later.",
		Err:        err,
	}
}

func (s *checkoutServiceImpl) internalError(msg string, err error) *ServiceError {
	s.logger.Error(msg, zap.Error(err))
	return &ServiceError{
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
		Message:    s.clientMessage("Payment processing failed. Please try again.", err),
		Err:        err,
	}
}

// clientMessage appends internal detail outside production only.
func (s *checkoutServiceImpl) clientMessage(generic string, err error) string {
	if s.production || err == nil {
		return generic
	}
	return generic + ": " + err.Error()
}

// auditFailure records a failed attempt on the standalone log write path, so
// the audit trail survives the rolled-back (or never-started) transaction.
func (s *checkoutServiceImpl) auditFailure(ctx context.Context, paymentIntentID, email string, amountMinor int64, clientIP, userAgent string) {
	s.writeAudit(ctx, paymentIntentID, email, amountMinor, outcomeFailed, clientIP, userAgent)
}

func (s *checkoutServiceImpl) auditReconciliation(ctx context.Context, paymentIntentID, email string, amountMinor int64, clientIP, userAgent string) {
	s.writeAudit(ctx, paymentIntentID, email, amountMinor, outcomeReconciliationRequired, clientIP, userAgent)
}

func (s *checkoutServiceImpl) writeAudit(ctx context.Context, paymentIntentID, email string, amountMinor int64, outcome, clientIP, userAgent string) {
	entry := &models.TransactionLog{
		PaymentIntentID: paymentIntentID,
		CustomerEmail:   email,
		Amount:          amountMinor,
		Currency:        s.currency,
		Outcome:         outcome,
		IPAddress:       clientIP,
		UserAgent:       userAgent,
	}
	if err := s.repo.CreateTransactionLog(ctx, entry); err != nil {
		s.logger.Error("Failed to write transaction audit log",
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
}

// generateOrderNumber builds a human-legible, collision-resistant order
// number: ORD-<date>-<4 random bytes hex>.
func generateOrderNumber() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// toMinorUnits converts a major-unit decimal amount to integer minor units,
// rounding to the nearest cent.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
