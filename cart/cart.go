// Package cart implements the shopping cart: an ordered list of line items
// persisted through an injected Storage, with decimal-safe totals.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is one cart entry. Price is the unit price in currency major
// units (e.g. dollars) carried as a decimal so repeated arithmetic never
// drifts at the cent level.
type LineItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Totals is the cart summary. DeliveryFee applies only when the cart is
// non-empty.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Store owns one shopper's cart. Mutations are synchronous and persist
// immediately; two stores sharing a key race last-write-wins, which matches
// two browser tabs sharing local storage.
type Store struct {
	storage     Storage
	key         string
	items       []LineItem
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
}

// NewStore loads the cart persisted under key, if any.
func NewStore(ctx context.Context, storage Storage, key string, taxRate, deliveryFee decimal.Decimal) (*Store, error) {
	items, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Store{
		storage:     storage,
		key:         key,
		items:       items,
		taxRate:     taxRate,
		deliveryFee: deliveryFee,
	}, nil
}

// Items returns a copy of the cart contents.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem merges into an existing entry by name, otherwise appends with
// quantity 1.
func (s *Store) AddItem(ctx context.Context, name string, price decimal.Decimal, image string) error {
	for i := range s.items {
		if s.items[i].Name == name {
			s.items[i].Quantity++
			return s.persist(ctx)
		}
	}
	s.items = append(s.items, LineItem{Name: name, Price: price, Image: image, Quantity: 1})
	return s.persist(ctx)
}

// UpdateQuantity adds delta to the item's quantity. The entry is removed
// entirely when the result drops to zero or below; a quantity ≤ 0 is never
// persisted.
func (s *Store) UpdateQuantity(ctx context.Context, index, delta int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("cart index %d out of range", index)
	}
	s.items[index].Quantity += delta
	if s.items[index].Quantity <= 0 {
		s.items = append(s.items[:index], s.items[index+1:]...)
	}
	return s.persist(ctx)
}

// RemoveItem deletes the entry at index.
func (s *Store) RemoveItem(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("cart index %d out of range", index)
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return s.persist(ctx)
}

// Clear empties the cart and its persisted copy.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	return s.storage.Clear(ctx, s.key)
}

// ComputeTotals recomputes the cart summary from scratch.
func (s *Store) ComputeTotals() Totals {
	return ComputeTotals(s.items, s.taxRate, s.deliveryFee)
}

// ComputeTotals sums line items with decimal arithmetic. The delivery fee is
// charged only when the subtotal is positive; tax applies to the subtotal
// alone.
func ComputeTotals(items []LineItem, taxRate, deliveryFee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = deliveryFee
	}

	tax := subtotal.Mul(taxRate)

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.storage.Save(ctx, s.key, s.items); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
