package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Conn is the part of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories depend on it so they can run inside or outside a transaction.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// UUIDStrings formats ids for query arguments. squirrel expands array
// values such as uuid.UUID into IN lists, so ids are passed as strings.
func UUIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping checks that the database is reachable.
func (p *Client) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// poolConfig builds the pool configuration from the environment and viper.
func poolConfig() (*pgxpool.Config, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("ORDER_PGBOUNCER_HOST"),
		viper.GetInt("postgres.port"),
		os.Getenv("ORDER_PG_USER"),
		os.Getenv("ORDER_PG_PASSWORD"),
		os.Getenv("ORDER_PG_DB"),
		viper.GetString("postgres.sslmode"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	if maxConns := viper.GetInt32("postgres.max_conns"); maxConns > 0 {
		config.MaxConns = maxConns
	}
	if idle := viper.GetInt("postgres.max_conn_idle_seconds"); idle > 0 {
		config.MaxConnIdleTime = time.Duration(idle) * time.Second
	}

	// PgBouncer in transaction pooling mode drops prepared statements between transactions.
	if viper.GetBool("postgres.simple_protocol") {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	return config, nil
}

// migrate applies pending goose migrations through a database/sql view of the pool.
func migrate(pool *pgxpool.Pool) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return goose.Up(db, viper.GetString("postgres.migrations_path"))
}

// MustNewClient connects, waits for the database and applies pending migrations.
func MustNewClient() *Client {
	config, err := poolConfig()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(err)
	}

	if err := pool.Ping(ctx); err != nil {
		panic(fmt.Sprintf("postgres is unreachable: %v", err))
	}

	if err := migrate(pool); err != nil {
		panic(fmt.Sprintf("failed to apply migrations: %v", err))
	}

	slog.Info("Postgres connected", "max_conns", config.MaxConns)

	return &Client{
		pool: pool,
	}
}
