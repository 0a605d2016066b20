package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/corray333/storefront/order/internal/service/models/order"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/corray333/storefront/order/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	Id              uuid.UUID       `db:"id"`
	UserId          uuid.UUID       `db:"user_id"`
	AddressId       uuid.UUID       `db:"address_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	PaymentMethod   string          `db:"payment_method"`
	ShippingAddress []byte          `db:"shipping_address"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := payment.ParseStatus(o.PaymentStatus)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := payment.ParseMethod(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var snapshot address.Snapshot
	if err := json.Unmarshal(o.ShippingAddress, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}

	return &order.Order{
		ID:              o.Id,
		UserID:          o.UserId,
		AddressID:       o.AddressId,
		TotalAmount:     o.TotalAmount,
		Status:          status,
		PaymentStatus:   paymentStatus,
		PaymentMethod:   paymentMethod,
		ShippingAddress: snapshot,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		OrderItems:      []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal
func OrderDalFromModel(o *order.Order) (*OrderDal, error) {
	snapshot, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}

	return &OrderDal{
		Id:              o.ID,
		UserId:          o.UserID,
		AddressId:       o.AddressID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status.String(),
		PaymentStatus:   o.PaymentStatus.String(),
		PaymentMethod:   o.PaymentMethod.String(),
		ShippingAddress: snapshot,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

var orderColumns = []string{
	"id",
	"user_id",
	"address_id",
	"total_amount",
	"status",
	"payment_status",
	"payment_method",
	"shipping_address",
	"created_at",
	"updated_at",
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresOrderRepository) buildInsertQuery(dal *OrderDal) (string, []any, error) {
	return r.sb.
		Insert("orders").
		Columns(
			"user_id",
			"address_id",
			"total_amount",
			"status",
			"payment_status",
			"payment_method",
			"shipping_address",
			"created_at",
			"updated_at",
		).
		Values(
			dal.UserId,
			dal.AddressId,
			dal.TotalAmount,
			dal.Status,
			dal.PaymentStatus,
			dal.PaymentMethod,
			sq.Expr("?::jsonb", string(dal.ShippingAddress)),
			dal.CreatedAt,
			dal.UpdatedAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
}

// Insert inserts one order and returns it with the generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	dal, err := OrderDalFromModel(&o)
	if err != nil {
		return order.Order{}, err
	}

	sql, args, err := r.buildInsertQuery(dal)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

func (r *PostgresOrderRepository) buildDeleteQuery(id uuid.UUID) (string, []any, error) {
	return r.sb.
		Delete("orders").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
}

// Delete removes an order by id. Deleting a missing order is not an error.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.buildDeleteQuery(id)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

func (r *PostgresOrderRepository) buildQuery(filter *order.QueryOrdersModel) (string, []any, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": postgres.UUIDStrings(filter.Ids)})
	}

	if len(filter.UserIds) > 0 {
		query = query.Where(sq.Eq{"user_id": postgres.UUIDStrings(filter.UserIds)})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return query.ToSql()
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	sql, args, err := r.buildQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.UserId,
			&dal.AddressId,
			&dal.TotalAmount,
			&dal.Status,
			&dal.PaymentStatus,
			&dal.PaymentMethod,
			&dal.ShippingAddress,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresOrderRepository) buildDeleteOrphansQuery(createdBefore time.Time, limit int) (string, []any, error) {
	// Built with "?" placeholders so the outer statement numbers them.
	orphans := sq.
		Select("o.id").
		From("orders o").
		Where(sq.Lt{"o.created_at": createdBefore}).
		Where("NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id)").
		OrderBy("o.created_at").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	orphansSQL, orphansArgs, err := orphans.ToSql()
	if err != nil {
		return "", nil, err
	}

	return r.sb.
		Delete("orders").
		Where(sq.Expr("id IN ("+orphansSQL+")", orphansArgs...)).
		Suffix("RETURNING id").
		ToSql()
}

// DeleteOrphans removes orders without items created before createdBefore
// and returns the removed ids.
func (r *PostgresOrderRepository) DeleteOrphans(
	ctx context.Context,
	createdBefore time.Time,
	limit int,
) ([]uuid.UUID, error) {
	sql, args, err := r.buildDeleteOrphansQuery(createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build delete orphans query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete orphan orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan orphan order id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}
