package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/storefront/order/internal/dal/interfaces/iaddressrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/dal/uow"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/corray333/storefront/order/internal/service/models/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// WriteMode selects how the order and its items are made all-or-nothing.
type WriteMode string

const (
	// WriteModeTransaction wraps every write of a checkout in one transaction.
	WriteModeTransaction WriteMode = "transaction"
	// WriteModeCompensate writes without a transaction and deletes the order
	// if its items could not be stored.
	WriteModeCompensate WriteMode = "compensate"
)

// ParseWriteMode parses a configured write mode. An empty string means WriteModeTransaction.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case "", WriteModeTransaction:
		return WriteModeTransaction, nil
	case WriteModeCompensate:
		return WriteModeCompensate, nil
	default:
		return "", fmt.Errorf("unknown write mode %q", s)
	}
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTx() bool

	AddressRepository() iaddressrepo.IAddressRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// OrderService is a service for managing orders.
type OrderService struct {
	pgClient      *postgres.Client
	newUOW        func() unitOfWork
	writeMode     WriteMode
	paymentMethod payment.Method
	outboxDst     outbox.Destination
	tracer        trace.Tracer
	now           func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		writeMode:     WriteModeTransaction,
		paymentMethod: payment.MethodRazorpay,
		outboxDst: outbox.Destination{
			RoutingKey: "order.created",
			MaxRetries: 5,
		},
		tracer: otel.Tracer("order-svc"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		if s.pgClient == nil {
			panic("ordersvc: postgres client is required")
		}
		transactional := s.writeMode == WriteModeTransaction
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient, transactional)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithWriteMode sets how checkout writes are kept consistent.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithWriteMode(mode WriteMode) option {
	return func(s *OrderService) {
		s.writeMode = mode
	}
}

// WithPaymentMethod sets the gateway name recorded on new orders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentMethod(method payment.Method) option {
	return func(s *OrderService) {
		s.paymentMethod = method
	}
}

// WithOutboxDestination sets where order.created events are published.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxDestination(dst outbox.Destination) option {
	return func(s *OrderService) {
		s.outboxDst = dst
	}
}

func withUnitOfWorkFactory(newUOW func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = newUOW
	}
}

// rollback ends a transaction left open by a failed step.
func rollback(ctx context.Context, work unitOfWork) {
	if err := work.Rollback(context.WithoutCancel(ctx)); err != nil {
		slog.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}
