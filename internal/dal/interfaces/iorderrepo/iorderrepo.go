package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/google/uuid"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	// DeleteOrphans removes orders created before createdBefore that have no items.
	DeleteOrphans(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}
