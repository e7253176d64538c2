package models

// CustomerDetails is the billing record collected at checkout. It is
// transient: sanitized on arrival and snapshotted into the order row.
type CustomerDetails struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// CartItemPayload is one client-submitted line item.
type CartItemPayload struct {
	Title    string  `json:"title" binding:"required"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
}

// PaymentRequest is the POST /api/process-payment body.
type PaymentRequest struct {
	Token    string            `json:"token" binding:"required"`
	Amount   float64           `json:"amount" binding:"required,gt=0"`
	Customer CustomerDetails   `json:"customer" binding:"required"`
	Items    []CartItemPayload `json:"items" binding:"required,min=1,dive"`
}

// PaymentResult is the success payload returned to the checkout page.
type PaymentResult struct {
	OrderID         string  `json:"order_id"`
	OrderNumber     string  `json:"order_number"`
	PaymentIntentID string  `json:"payment_intent_id"`
	CustomerID      string  `json:"customer_id"`
	Amount          float64 `json:"amount"`
}
