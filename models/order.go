package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusFailed    = "failed"
)

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is the persisted record of a successful submission. Monetary columns
// are stored in minor units (cents). The customer and item columns are
// snapshots taken at submission time; later menu changes never touch them.
type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string      `gorm:"uniqueIndex;not null"`
	PaymentIntentID string      `gorm:"uniqueIndex;not null"`
	CustomerName    string      `gorm:"type:varchar(255);not null"`
	CustomerEmail   string      `gorm:"type:varchar(255);not null;index"`
	CustomerPhone   string      `gorm:"type:varchar(20);not null"`
	DeliveryAddress string      `gorm:"type:text;not null"`
	Subtotal        int64       `gorm:"not null"`
	TaxAmount       int64       `gorm:"not null"`
	DeliveryFee     int64       `gorm:"not null"`
	TotalAmount     int64       `gorm:"not null"`
	Status          string      `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus   string      `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt       time.Time   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one line of an order snapshot.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FoodName  string    `gorm:"type:varchar(255);not null"`
	FoodPrice int64     `gorm:"not null"` // minor units
	Quantity  int       `gorm:"not null"`
	ItemTotal int64     `gorm:"not null"` // minor units
}

// TransactionLog is an append-only audit record, written once per submission
// attempt including failed ones. Rows are never updated or deleted.
type TransactionLog struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID string    `gorm:"type:varchar(255);index"`
	CustomerEmail   string    `gorm:"type:varchar(255);not null"`
	Amount          int64     `gorm:"not null"` // minor units
	Currency        string    `gorm:"type:varchar(10);not null"`
	Outcome         string    `gorm:"type:varchar(40);not null"`
	IPAddress       string    `gorm:"type:varchar(45);not null"`
	UserAgent       string    `gorm:"type:varchar(512)"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}
