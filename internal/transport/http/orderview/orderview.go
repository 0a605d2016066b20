// Package orderview renders orders for the HTTP API.
package orderview

import (
	"encoding/json"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/google/uuid"
)

// Item is an order line as returned to clients.
type Item struct {
	ID          uuid.UUID   `json:"id"`
	ProductID   uuid.UUID   `json:"product_id"`
	Quantity    int         `json:"quantity"`
	PriceAtTime json.Number `json:"price_at_time"`
	Size        *string     `json:"size,omitempty"`
	Color       *string     `json:"color,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Order is an order as returned to clients.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	AddressID       uuid.UUID        `json:"address_id"`
	TotalAmount     json.Number      `json:"total_amount"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"payment_status"`
	PaymentMethod   string           `json:"payment_method"`
	ShippingAddress address.Snapshot `json:"shipping_address"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Items           []Item           `json:"items"`
}

// FromModel converts a service order.
func FromModel(o *order.Order) Order {
	items := make([]Item, len(o.OrderItems))
	for i, item := range o.OrderItems {
		items[i] = Item{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: json.Number(item.PriceAtTime.String()),
			Size:        item.Size,
			Color:       item.Color,
			CreatedAt:   item.CreatedAt,
		}
	}

	return Order{
		ID:              o.ID,
		AddressID:       o.AddressID,
		TotalAmount:     json.Number(o.TotalAmount.String()),
		Status:          o.Status.String(),
		PaymentStatus:   o.PaymentStatus.String(),
		PaymentMethod:   o.PaymentMethod.String(),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

// FromModels converts a list of service orders. The result is never nil.
func FromModels(orders []order.Order) []Order {
	out := make([]Order, len(orders))
	for i := range orders {
		out[i] = FromModel(&orders[i])
	}
	return out
}
