package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/issamdi/food-ordering-website/controllers"
	"github.com/issamdi/food-ordering-website/middleware"
	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockCheckout struct {
	result  *models.PaymentResult
	err     *services.ServiceError
	lastReq *models.PaymentRequest
	lastIP  string
}

func (m *mockCheckout) ProcessPayment(_ context.Context, req *models.PaymentRequest, clientIP, _ string) (*models.PaymentResult, *services.ServiceError) {
	m.lastReq = req
	m.lastIP = clientIP
	return m.result, m.err
}

type mockWebhook struct {
	err     *services.ServiceError
	lastSig string
}

func (m *mockWebhook) HandleEvent(_ context.Context, _ []byte, sigHeader string) *services.ServiceError {
	m.lastSig = sigHeader
	return m.err
}

func newTestRouter(checkout services.CheckoutService, webhook services.WebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	r := gin.New()
	r.Use(middleware.SecurityHeaders(), middleware.CORSMiddleware())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	pc := &controllers.PaymentController{Checkout: checkout, Webhook: webhook, Logger: logger}
	api := r.Group("/api")
	api.POST("/process-payment", pc.ProcessPayment)
	api.POST("/webhook", pc.StripeWebhook)
	return r
}

func validPaymentBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(models.PaymentRequest{
		Token:  "tok_visa",
		Amount: 29.91,
		Customer: models.CustomerDetails{
			Name:    "Jane Doe",
			Email:   "jane@example.com",
			Phone:   "5551234567",
			Address: "1 Main St",
		},
		Items: []models.CartItemPayload{{Title: "Pizza", Price: 12.00, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return body
}

func TestProcessPayment_SuccessResponseShape(t *testing.T) {
	checkout := &mockCheckout{result: &models.PaymentResult{
		OrderID:         "7f3d9a40-0000-0000-0000-000000000000",
		OrderNumber:     "ORD-20260901-ABCD1234",
		PaymentIntentID: "ch_123",
		CustomerID:      "cus_123",
		Amount:          29.91,
	}}
	r := newTestRouter(checkout, &mockWebhook{})

	req := httptest.NewRequest(http.MethodPost, "/api/process-payment", bytes.NewReader(validPaymentBody(t)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Message string               `json:"message"`
		Data    models.PaymentResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment processed successfully", resp.Message)
	assert.Equal(t, "ORD-20260901-ABCD1234", resp.Data.OrderNumber)
	assert.Equal(t, "ch_123", resp.Data.PaymentIntentID)
	assert.NotNil(t, checkout.lastReq)
}

func TestProcessPayment_MalformedBodyIsBadRequest(t *testing.T) {
	r := newTestRouter(&mockCheckout{}, &mockWebhook{})

	req := httptest.NewRequest(http.MethodPost, "/api/process-payment", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestProcessPayment_MissingFieldsFailBinding(t *testing.T) {
	r := newTestRouter(&mockCheckout{}, &mockWebhook{})

	req := httptest.NewRequest(http.MethodPost, "/api/process-payment", strings.NewReader(`{"token":"tok_visa"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessPayment_ServiceErrorMapsToStatusAndMessage(t *testing.T) {
	checkout := &mockCheckout{err: &services.ServiceError{
		Kind:       services.KindCardDeclined,
		StatusCode: http.StatusBadRequest,
		Message:    "Card declined: insufficient funds",
	}}
	r := newTestRouter(checkout, &mockWebhook{})

	req := httptest.NewRequest(http.MethodPost, "/api/process-payment", bytes.NewReader(validPaymentBody(t)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Card declined: insufficient funds", resp["error"])
}

func TestProcessPayment_GetIsMethodNotAllowed(t *testing.T) {
	r := newTestRouter(&mockCheckout{}, &mockWebhook{})

	req := httptest.NewRequest(http.MethodGet, "/api/process-payment", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestProcessPayment_PreflightAllowed(t *testing.T) {
	r := newTestRouter(&mockCheckout{}, &mockWebhook{})

	req := httptest.NewRequest(http.MethodOptions, "/api/process-payment", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcessPayment_SecurityHeadersPresent(t *testing.T) {
	r := newTestRouter(&mockCheckout{}, &mockWebhook{})

	req := httptest.NewRequest(http.MethodPost, "/api/process-payment", bytes.NewReader(validPaymentBody(t)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestStripeWebhook_ForwardsSignatureAndAccepts(t *testing.T) {
	webhook := &mockWebhook{}
	r := newTestRouter(&mockCheckout{}, webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", webhook.lastSig)
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())
}

func TestStripeWebhook_BadSignatureIsBadRequest(t *testing.T) {
	webhook := &mockWebhook{err: &services.ServiceError{
		Kind:       services.KindValidation,
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid webhook",
	}}
	r := newTestRouter(&mockCheckout{}, webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid webhook")
}
