package ordersvc

import (
	"context"
	"fmt"
	"math"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// ListOrders returns a page of the user's orders with their items, newest first.
// Pages start at 1.
func (s *OrderService) ListOrders(
	ctx context.Context,
	userID uuid.UUID,
	page int,
	pageSize int,
) ([]order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize > 0 && page-1 > math.MaxInt/pageSize {
		return nil, apperr.Wrap(apperr.CodeValidation, fmt.Errorf("page %d is out of range", page))
	}

	orders, err := s.queryWithItems(ctx, &order.QueryOrdersModel{
		UserIds: []uuid.UUID{userID},
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeServer, err)
	}

	return orders, nil
}

// GetOrder returns one of the user's orders with its items.
// Orders of other users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, id uuid.UUID) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	orders, err := s.queryWithItems(ctx, &order.QueryOrdersModel{
		Ids:     []uuid.UUID{id},
		UserIds: []uuid.UUID{userID},
		Limit:   1,
	})
	if err != nil {
		return order.Order{}, apperr.Wrap(apperr.CodeServer, err)
	}

	if len(orders) == 0 {
		return order.Order{}, apperr.Wrap(apperr.CodeOrderNotFound, order.ErrNotFound)
	}

	return orders[0], nil
}

func (s *OrderService) queryWithItems(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderItemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		orderItemQuery.OrderIds = append(orderItemQuery.OrderIds, o.ID)
	}
	orderItems, err := work.OrderItemRepository().Query(ctx, orderItemQuery)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]orderitem.OrderItem, len(orders))
	for _, item := range orderItems {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].OrderItems = items
		}
	}

	return orders, nil
}
