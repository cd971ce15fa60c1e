package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mintcondition/cardshop/internal/domain/inventory"
)

// InventoryRepository implements inventory.Ledger on an open transaction.
type InventoryRepository struct {
	tx pgx.Tx
}

func (r *InventoryRepository) Get(ctx context.Context, id int64) (*inventory.Record, error) {
	query := `
		SELECT id, product_id, name, condition, language, price, stock_quantity, updated_at
		FROM inventory_records WHERE id = $1
	`
	var rec inventory.Record
	err := r.tx.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.ProductID, &rec.Name, &rec.Condition, &rec.Language,
		&rec.Price, &rec.StockQuantity, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, inventory.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TryDecrement checks and reduces stock in a single conditional UPDATE. Two
// concurrent submissions racing over the same record serialize on the row;
// whichever commits second re-evaluates the stock guard against the winner's
// result and reports false when nothing is left.
func (r *InventoryRepository) TryDecrement(ctx context.Context, id int64, qty int) (bool, error) {
	if qty <= 0 {
		return false, inventory.ErrInvalidQuantity
	}
	query := `
		UPDATE inventory_records
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
	`
	ct, err := r.tx.Exec(ctx, query, qty, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *InventoryRepository) Increment(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	query := `
		UPDATE inventory_records
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
	`
	ct, err := r.tx.Exec(ctx, query, qty, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) Put(ctx context.Context, rec *inventory.Record) error {
	if rec.ID == 0 {
		query := `
			INSERT INTO inventory_records (product_id, name, condition, language, price, stock_quantity, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, updated_at
		`
		return r.tx.QueryRow(ctx, query,
			rec.ProductID, rec.Name, rec.Condition, rec.Language, rec.Price, rec.StockQuantity,
		).Scan(&rec.ID, &rec.UpdatedAt)
	}

	query := `
		INSERT INTO inventory_records (id, product_id, name, condition, language, price, stock_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			name = EXCLUDED.name,
			condition = EXCLUDED.condition,
			language = EXCLUDED.language,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.tx.QueryRow(ctx, query,
		rec.ID, rec.ProductID, rec.Name, rec.Condition, rec.Language, rec.Price, rec.StockQuantity,
	).Scan(&rec.UpdatedAt)
}
