package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id          uuid.UUID       `db:"id"`
	OrderId     uuid.UUID       `db:"order_id"`
	ProductId   uuid.UUID       `db:"product_id"`
	Quantity    int             `db:"quantity"`
	PriceAtTime decimal.Decimal `db:"price_at_time"`
	Size        *string         `db:"size"`
	Color       *string         `db:"color"`
	CreatedAt   time.Time       `db:"created_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:          oi.Id,
		OrderID:     oi.OrderId,
		ProductID:   oi.ProductId,
		Quantity:    oi.Quantity,
		PriceAtTime: oi.PriceAtTime,
		Size:        oi.Size,
		Color:       oi.Color,
		CreatedAt:   oi.CreatedAt,
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.Conn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const bulkInsertSQL = `
	INSERT INTO order_items (order_id, product_id, quantity, price_at_time, size, color)
	SELECT order_id, product_id, quantity, price_at_time, size, color
	FROM unnest($1::uuid[], $2::uuid[], $3::int[], $4::numeric[], $5::text[], $6::text[])
	AS t(order_id, product_id, quantity, price_at_time, size, color)
	RETURNING id, order_id, product_id, quantity, price_at_time, size, color, created_at
`

// bulkInsertArgs splits items into one array per column.
func bulkInsertArgs(orderItems []orderitem.OrderItem) []any {
	orderIds := make([]string, len(orderItems))
	productIds := make([]string, len(orderItems))
	quantities := make([]int32, len(orderItems))
	prices := make([]string, len(orderItems))
	sizes := make([]*string, len(orderItems))
	colors := make([]*string, len(orderItems))

	for i, oi := range orderItems {
		orderIds[i] = oi.OrderID.String()
		productIds[i] = oi.ProductID.String()
		quantities[i] = int32(oi.Quantity)
		prices[i] = oi.PriceAtTime.String()
		sizes[i] = oi.Size
		colors[i] = oi.Color
	}

	return []any{orderIds, productIds, quantities, prices, sizes, colors}
}

// BulkInsert inserts all items in a single statement, so either every row is written or none is.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	rows, err := r.conn.Query(ctx, bulkInsertSQL, bulkInsertArgs(orderItems)...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	result, err := scanOrderItems(rows)
	if err != nil {
		return nil, err
	}

	if len(result) != len(orderItems) {
		return nil, fmt.Errorf("bulk insert order items: inserted %d of %d rows", len(result), len(orderItems))
	}

	return result, nil
}

func (r *PostgresOrderItemRepository) buildQuery(filter *orderitem.QueryOrderItemsModel) (string, []any, error) {
	query := r.sb.
		Select(
			"id",
			"order_id",
			"product_id",
			"quantity",
			"price_at_time",
			"size",
			"color",
			"created_at",
		).
		From("order_items").
		OrderBy("created_at", "id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": postgres.UUIDStrings(filter.Ids)})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": postgres.UUIDStrings(filter.OrderIds)})
	}

	if len(filter.ProductIds) > 0 {
		query = query.Where(sq.Eq{"product_id": postgres.UUIDStrings(filter.ProductIds)})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return query.ToSql()
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	sql, args, err := r.buildQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	return scanOrderItems(rows)
}

func (r *PostgresOrderItemRepository) buildDeleteByOrderIDQuery(orderID uuid.UUID) (string, []any, error) {
	return r.sb.
		Delete("order_items").
		Where(sq.Eq{"order_id": orderID.String()}).
		ToSql()
}

// DeleteByOrderID removes every item of an order.
func (r *PostgresOrderItemRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	sql, args, err := r.buildDeleteByOrderIDQuery(orderID)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	return nil
}

func scanOrderItems(rows pgx.Rows) ([]orderitem.OrderItem, error) {
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.PriceAtTime,
			&dal.Size,
			&dal.Color,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
