package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/service/models/address"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddressDal represents address data access layer model.
type AddressDal struct {
	Id          uuid.UUID `db:"id"`
	UserId      uuid.UUID `db:"user_id"`
	AddressLine string    `db:"address_line"`
	City        string    `db:"city"`
	State       string    `db:"state"`
	PostalCode  *string   `db:"postal_code"`
	Country     string    `db:"country"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ToModel converts AddressDal to service layer Address model.
func (a *AddressDal) ToModel() *address.Address {
	return &address.Address{
		ID:          a.Id,
		UserID:      a.UserId,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// PostgresAddressRepository reads saved addresses.
type PostgresAddressRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresAddressRepository creates a new Postgres address repository.
func NewPostgresAddressRepository(conn postgres.Conn) *PostgresAddressRepository {
	return &PostgresAddressRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// buildGetOwnedQuery selects one address only if it belongs to userID.
func (r *PostgresAddressRepository) buildGetOwnedQuery(id, userID uuid.UUID) (string, []any, error) {
	return r.sb.
		Select(
			"id",
			"user_id",
			"address_line",
			"city",
			"state",
			"postal_code",
			"country",
			"created_at",
			"updated_at",
		).
		From("addresses").
		Where(sq.Eq{"id": id.String(), "user_id": userID.String()}).
		Limit(1).
		ToSql()
}

// GetOwned returns the address with the given id owned by userID.
// It returns address.ErrNotFound both when the address is missing and when it belongs to someone else.
func (r *PostgresAddressRepository) GetOwned(
	ctx context.Context,
	id uuid.UUID,
	userID uuid.UUID,
) (*address.Address, error) {
	sql, args, err := r.buildGetOwnedQuery(id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal AddressDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.UserId,
		&dal.AddressLine,
		&dal.City,
		&dal.State,
		&dal.PostalCode,
		&dal.Country,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, address.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return dal.ToModel(), nil
}
