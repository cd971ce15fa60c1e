package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/order"
	"github.com/mintcondition/cardshop/internal/domain/storage"
)

// Store implements storage.Manager on a pgx connection pool. Stock safety
// rests on the row-conditional UPDATEs in the repositories plus postgres
// row-level write serialization; the store itself only guarantees that every
// Do scope is one transaction.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, connString string, log *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Do runs fn inside one transaction. Rollback on error or panic, commit on
// nil return.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = pgtx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, &tx{tx: pgtx}); err != nil {
		if rbErr := pgtx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Error("tx_rollback_failed", zap.Error(rbErr))
		}
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type tx struct {
	tx pgx.Tx
}

func (t *tx) Orders() order.Repository    { return &OrderRepository{tx: t.tx} }
func (t *tx) Inventory() inventory.Ledger { return &InventoryRepository{tx: t.tx} }

// Migrate creates the persisted state owned by this service: order headers,
// order items and inventory records.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS inventory_records (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			condition VARCHAR(32) NOT NULL DEFAULT '',
			language VARCHAR(32) NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL,
			stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_records_product_id ON inventory_records(product_id)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			customer_email VARCHAR(255) NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_address TEXT NOT NULL DEFAULT '',
			customer_phone VARCHAR(64) NOT NULL DEFAULT '',
			total NUMERIC(12,2) NOT NULL,
			currency VARCHAR(8) NOT NULL DEFAULT 'USD',
			notes TEXT NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			inventory_id BIGINT NOT NULL REFERENCES inventory_records(id),
			product_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			condition VARCHAR(32) NOT NULL DEFAULT '',
			language VARCHAR(32) NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL,
			line_total NUMERIC(12,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}
