package repository

import (
	"context"

	"github.com/issamdi/food-ordering-website/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the data access surface of the checkout flow.
type OrderRepository interface {
	// CreateOrderWithLog inserts the order, its item snapshots, and the audit
	// log entry in a single transaction. Either all rows land or none do.
	CreateOrderWithLog(ctx context.Context, order *models.Order, logEntry *models.TransactionLog) error

	// CreateTransactionLog appends an audit record outside any order
	// transaction, so failed attempts remain auditable after a rollback.
	CreateTransactionLog(ctx context.Context, entry *models.TransactionLog) error

	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)

	// UpdateOrderStatus applies column updates to an order row by primary key.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) CreateOrderWithLog(ctx context.Context, order *models.Order, logEntry *models.TransactionLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Item rows ride along via the association.
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(logEntry).Error
	})
}

func (r *GormOrderRepository) CreateTransactionLog(ctx context.Context, entry *models.TransactionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormOrderRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_intent_id = ?", paymentIntentID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
