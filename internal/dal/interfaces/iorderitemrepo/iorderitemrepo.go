package iorderitemrepo

import (
	"context"

	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// IOrderItemRepository is an interface for order item postgres repository.
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, orderItems []orderitem.OrderItem) ([]orderitem.OrderItem, error)
	Query(
		ctx context.Context,
		filter *orderitem.QueryOrderItemsModel,
	) ([]orderitem.OrderItem, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
}
