package order

import (
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderModel is a validated checkout request.
type CreateOrderModel struct {
	AddressID   uuid.UUID
	TotalAmount decimal.Decimal
	Items       []orderitem.OrderItem
}
