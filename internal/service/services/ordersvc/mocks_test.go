package ordersvc

import (
	"context"
	"time"

	"github.com/corray333/storefront/order/internal/dal/interfaces/iaddressrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockUnitOfWork struct {
	mock.Mock

	transactional bool
	begun         bool

	addressRepo   *mockAddressRepository
	orderRepo     *mockOrderRepository
	orderItemRepo *mockOrderItemRepository
	outboxRepo    *mockOutboxRepository
}

func newMockUnitOfWork(transactional bool) *mockUnitOfWork {
	return &mockUnitOfWork{
		transactional: transactional,
		addressRepo:   &mockAddressRepository{},
		orderRepo:     &mockOrderRepository{},
		orderItemRepo: &mockOrderItemRepository{},
		outboxRepo:    &mockOutboxRepository{},
	}
}

func (m *mockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	if args.Error(0) == nil && m.transactional {
		m.begun = true
	}
	return args.Error(0)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) InTx() bool {
	return m.begun
}

func (m *mockUnitOfWork) AddressRepository() iaddressrepo.IAddressRepository {
	return m.addressRepo
}

func (m *mockUnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return m.orderRepo
}

func (m *mockUnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return m.orderItemRepo
}

func (m *mockUnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return m.outboxRepo
}

type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) GetOwned(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*address.Address, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	args := m.Called(ctx, o)
	if fn, ok := args.Get(0).(func(context.Context, order.Order) order.Order); ok {
		return fn(ctx, o), args.Error(1)
	}
	return args.Get(0).(order.Order), args.Error(1)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *mockOrderRepository) DeleteOrphans(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockOrderItemRepository struct {
	mock.Mock
}

func (m *mockOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	args := m.Called(ctx, orderItems)
	if fn, ok := args.Get(0).(func(context.Context, []orderitem.OrderItem) []orderitem.OrderItem); ok {
		return fn(ctx, orderItems), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orderitem.OrderItem), args.Error(1)
}

func (m *mockOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orderitem.OrderItem), args.Error(1)
}

func (m *mockOrderItemRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockOutboxRepository) Claim(ctx context.Context, limit int, leaseUntil time.Time) ([]outbox.OutboxMessage, error) {
	args := m.Called(ctx, limit, leaseUntil)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbox.OutboxMessage), args.Error(1)
}

func (m *mockOutboxRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepository) Reschedule(ctx context.Context, id int64, attempt outbox.Attempt) error {
	return m.Called(ctx, id, attempt).Error(0)
}
