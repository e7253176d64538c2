package controllers

import (
	"net/http"
	"strconv"

	"github.com/issamdi/food-ordering-website/cart"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartController exposes the session-keyed cart over HTTP. The session id
// comes from the X-Session-ID header; each request loads the cart fresh from
// storage, mutates, and persists.
type CartController struct {
	Storage     cart.Storage
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	Logger      *zap.Logger
}

func (cc *CartController) store(c *gin.Context) (*cart.Store, bool) {
	key := c.GetHeader("X-Session-ID")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-Session-ID header"})
		return nil, false
	}

	s, err := cart.NewStore(c.Request.Context(), cc.Storage, key, cc.TaxRate, cc.DeliveryFee)
	if err != nil {
		cc.Logger.Error("Failed to load cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return nil, false
	}
	return s, true
}

func (cc *CartController) respondCart(c *gin.Context, s *cart.Store) {
	c.JSON(http.StatusOK, gin.H{
		"items":  s.Items(),
		"totals": s.ComputeTotals(),
	})
}

// GetCart handles GET /api/cart.
func (cc *CartController) GetCart(c *gin.Context) {
	s, ok := cc.store(c)
	if !ok {
		return
	}
	cc.respondCart(c, s)
}

// AddItem handles POST /api/cart/items.
func (cc *CartController) AddItem(c *gin.Context) {
	var req struct {
		Name  string  `json:"name" binding:"required"`
		Price float64 `json:"price" binding:"required,gt=0"`
		Image string  `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, ok := cc.store(c)
	if !ok {
		return
	}
	if err := s.AddItem(c.Request.Context(), req.Name, decimal.NewFromFloat(req.Price), req.Image); err != nil {
		cc.Logger.Error("Failed to add cart item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}
	cc.respondCart(c, s)
}

// UpdateQuantity handles PATCH /api/cart/items/:index.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item index"})
		return
	}

	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, ok := cc.store(c)
	if !ok {
		return
	}
	if err := s.UpdateQuantity(c.Request.Context(), index, req.Delta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cc.respondCart(c, s)
}

// RemoveItem handles DELETE /api/cart/items/:index.
func (cc *CartController) RemoveItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item index"})
		return
	}

	s, ok := cc.store(c)
	if !ok {
		return
	}
	if err := s.RemoveItem(c.Request.Context(), index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cc.respondCart(c, s)
}

// ClearCart handles DELETE /api/cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	s, ok := cc.store(c)
	if !ok {
		return
	}
	if err := s.Clear(c.Request.Context()); err != nil {
		cc.Logger.Error("Failed to clear cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}
	cc.respondCart(c, s)
}
