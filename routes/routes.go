package routes

import (
	"github.com/issamdi/food-ordering-website/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, pc *controllers.PaymentController, cc *controllers.CartController) {
	api := r.Group("/api")

	api.POST("/process-payment", pc.ProcessPayment)

	// Gateway webhook (no session, signature-verified)
	api.POST("/webhook", pc.StripeWebhook)

	api.GET("/cart", cc.GetCart)
	api.POST("/cart/items", cc.AddItem)
	api.PATCH("/cart/items/:index", cc.UpdateQuantity)
	api.DELETE("/cart/items/:index", cc.RemoveItem)
	api.DELETE("/cart", cc.ClearCart)
}
