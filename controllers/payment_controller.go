package controllers

import (
	"net/http"

	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	Checkout services.CheckoutService
	Webhook  services.WebhookService
	Logger   *zap.Logger
}

// ProcessPayment handles POST /api/process-payment.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, svcErr := pc.Checkout.ProcessPayment(
		c.Request.Context(),
		&req,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment processed successfully",
		"data":    result,
	})
}
