package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatedEvent is published once an order and its items are persisted.
type CreatedEvent struct {
	OrderID       uuid.UUID          `json:"orderId"`
	UserID        uuid.UUID          `json:"userId"`
	TotalAmount   decimal.Decimal    `json:"totalAmount"`
	Status        Status             `json:"status"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []CreatedEventItem `json:"items"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// CreatedEventItem is a line of a CreatedEvent.
type CreatedEventItem struct {
	ProductID   uuid.UUID       `json:"productId"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
}

// NewCreatedEvent builds the event for a persisted order.
func NewCreatedEvent(o *Order) CreatedEvent {
	items := make([]CreatedEventItem, len(o.OrderItems))
	for i, item := range o.OrderItems {
		items[i] = CreatedEventItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		}
	}

	return CreatedEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod.String(),
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
}
