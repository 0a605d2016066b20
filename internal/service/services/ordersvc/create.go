package ordersvc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/corray333/storefront/order/internal/service/apperr"
	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/corray333/storefront/order/internal/service/models/payment"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Checkout steps, as they appear in logs.
const (
	stepAddress = "verify_address"
	stepOrder   = "insert_order"
	stepItems   = "insert_items"
	stepOutbox  = "insert_outbox"
	stepCommit  = "commit"
)

// CreateOrder places an order for userID from a validated checkout request.
//
// The order and its items are stored all-or-nothing. In transaction mode a
// failure rolls the transaction back; in compensate mode the order row is
// deleted explicitly when its items could not be stored. Errors are
// *apperr.Error values carrying the client-visible code.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	userID uuid.UUID,
	model order.CreateOrderModel,
) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("items_count", len(model.Items)),
	)

	log := slog.Default().With("user_id", userID.String())

	fail := func(step string, code apperr.Code, err error) (order.Order, error) {
		log.ErrorContext(ctx, "Failed to create order", "step", step, "code", code, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, step)

		return order.Order{}, apperr.Wrap(code, err)
	}

	work := s.newUOW()

	addr, err := work.AddressRepository().GetOwned(ctx, model.AddressID, userID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return fail(stepAddress, apperr.CodeAddress, err)
		}
		return fail(stepAddress, apperr.CodeServer, err)
	}

	if err := work.Begin(ctx); err != nil {
		return fail(stepOrder, apperr.CodeOrderInsert, err)
	}
	committed := false
	defer func() {
		if !committed {
			rollback(ctx, work)
		}
	}()

	now := s.now()
	created, err := work.OrderRepository().Insert(ctx, order.Order{
		UserID:          userID,
		AddressID:       addr.ID,
		TotalAmount:     model.TotalAmount,
		Status:          order.StatusPending,
		PaymentStatus:   payment.StatusPaid,
		PaymentMethod:   s.paymentMethod,
		ShippingAddress: addr.Snapshot(),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return fail(stepOrder, apperr.CodeOrderInsert, err)
	}
	log = log.With("order_id", created.ID.String())
	span.SetAttributes(attribute.String("order_id", created.ID.String()))

	items := make([]orderitem.OrderItem, len(model.Items))
	for i, item := range model.Items {
		item.OrderID = created.ID
		items[i] = item
	}

	insertedItems, err := work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		if !work.InTx() {
			s.compensate(ctx, work, created.ID)
		}
		return fail(stepItems, apperr.CodeItemsInsert, err)
	}
	created.OrderItems = insertedItems

	if err := s.storeCreatedEvent(ctx, work, &created); err != nil {
		if work.InTx() {
			return fail(stepOutbox, apperr.CodeOrderInsert, err)
		}
		// The order is already durable without a transaction, so only the event is lost.
		log.ErrorContext(ctx, "Failed to store order.created event", "step", stepOutbox, "error", err)
	}

	if err := work.Commit(ctx); err != nil {
		return fail(stepCommit, apperr.CodeOrderInsert, err)
	}
	committed = true

	log.InfoContext(ctx, "Order created",
		"items_count", len(created.OrderItems),
		"total_amount", created.TotalAmount.String(),
	)

	return created, nil
}

// compensate removes an order whose items could not be stored.
// It runs detached from the caller's cancellation so a dropped client
// cannot leave the order behind.
func (s *OrderService) compensate(ctx context.Context, work unitOfWork, orderID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)

	if err := work.OrderItemRepository().DeleteByOrderID(ctx, orderID); err != nil {
		slog.ErrorContext(ctx, "Compensation failed to delete order items",
			"order_id", orderID.String(),
			"error", err,
		)
	}

	if err := work.OrderRepository().Delete(ctx, orderID); err != nil {
		slog.ErrorContext(ctx, "Compensation failed to delete order, left for the orphan reaper",
			"order_id", orderID.String(),
			"error", err,
		)

		return
	}

	slog.WarnContext(ctx, "Order deleted after failed item insert", "order_id", orderID.String())
}

func (s *OrderService) storeCreatedEvent(ctx context.Context, work unitOfWork, o *order.Order) error {
	msg, err := outbox.NewJSONMessage(s.outboxDst, order.NewCreatedEvent(o), s.now())
	if err != nil {
		return err
	}

	return work.OutboxRepository().Insert(ctx, msg)
}
