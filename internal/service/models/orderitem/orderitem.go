package orderitem

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem represents an item within an order.
// PriceAtTime is the unit price the buyer saw at checkout, independent of the live catalog.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"orderId"`
	ProductID   uuid.UUID       `json:"productId"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	Size        *string         `json:"size,omitempty"`
	Color       *string         `json:"color,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Subtotal returns quantity multiplied by the unit price.
func (oi *OrderItem) Subtotal() decimal.Decimal {
	return oi.PriceAtTime.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
