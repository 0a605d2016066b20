package uow

import (
	"context"
	"errors"

	"github.com/corray333/storefront/order/internal/dal/interfaces/iaddressrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	addressrepo "github.com/corray333/storefront/order/internal/dal/repositories/address/postgres"
	orderrepo "github.com/corray333/storefront/order/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/storefront/order/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/storefront/order/internal/dal/repositories/outbox/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type unitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	transactional bool
	addressRepo   iaddressrepo.IAddressRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func (u *unitOfWork) AddressRepository() iaddressrepo.IAddressRepository {
	return u.addressRepo
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// NewUnitOfWork creates a unit of work over the client's pool.
// With transactional set to false Begin is a no-op and every statement
// autocommits, for poolers that cannot hold a transaction open.
func NewUnitOfWork(db *postgres.Client, transactional bool) *unitOfWork {
	u := &unitOfWork{
		pool:          db.Pool(),
		transactional: transactional,
	}
	u.bind(db.Pool())

	return u
}

func (u *unitOfWork) bind(conn postgres.Conn) {
	u.addressRepo = addressrepo.NewPostgresAddressRepository(conn)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if !u.transactional {
		return nil
	}

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	// Repositories share the transaction from here on
	u.bind(tx)

	return nil
}

// InTx reports whether statements run inside a transaction.
func (u *unitOfWork) InTx() bool {
	return u.tx != nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

// Rollback is safe to call after Commit.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
