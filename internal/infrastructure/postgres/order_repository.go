package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mintcondition/cardshop/internal/domain/order"
)

// OrderRepository implements order.Repository on an open transaction.
type OrderRepository struct {
	tx pgx.Tx
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (customer_email, customer_name, customer_address, customer_phone,
		                    total, currency, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.tx.QueryRow(ctx, query,
		o.CustomerEmail, o.CustomerName, o.CustomerAddress, o.CustomerPhone,
		o.Total, o.Currency, o.Notes, string(o.Status),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OrderRepository) InsertItem(ctx context.Context, it *order.Item) error {
	query := `
		INSERT INTO order_items (order_id, inventory_id, product_id, name, condition, language,
		                         quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.tx.QueryRow(ctx, query,
		it.OrderID, it.InventoryID, it.ProductID, it.Name, it.Condition, it.Language,
		it.Quantity, it.UnitPrice, it.LineTotal,
	).Scan(&it.ID)
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	query := `
		SELECT id, customer_email, customer_name, customer_address, customer_phone,
		       total, currency, notes, status, created_at, updated_at
		FROM orders WHERE id = $1
	`
	var o order.Order
	err := r.tx.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CustomerEmail, &o.CustomerName, &o.CustomerAddress, &o.CustomerPhone,
		&o.Total, &o.Currency, &o.Notes, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Items(ctx context.Context, orderID int64) ([]order.Item, error) {
	query := `
		SELECT id, order_id, inventory_id, product_id, name, condition, language,
		       quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id
	`
	rows, err := r.tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.InventoryID, &it.ProductID, &it.Name, &it.Condition,
			&it.Language, &it.Quantity, &it.UnitPrice, &it.LineTotal,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	query := `
		SELECT id, customer_email, customer_name, customer_address, customer_phone,
		       total, currency, notes, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.tx.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(
			&o.ID, &o.CustomerEmail, &o.CustomerName, &o.CustomerAddress, &o.CustomerPhone,
			&o.Total, &o.Currency, &o.Notes, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) SetStatus(ctx context.Context, id int64, st order.Status, notes *string) error {
	query := `
		UPDATE orders
		SET status = $1, notes = COALESCE($2, notes), updated_at = NOW()
		WHERE id = $3
	`
	ct, err := r.tx.Exec(ctx, query, string(st), notes, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// MarkCancelled is the cancellation counterpart of the conditional stock
// decrement: the status guard and the status write happen in one statement,
// so concurrent cancellers racing over the same order serialize on the row
// and exactly one of them observes an affected row.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id int64, notes *string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, notes = COALESCE($2, notes), updated_at = NOW()
		WHERE id = $3 AND status <> $1
	`
	ct, err := r.tx.Exec(ctx, query, string(order.StatusCancelled), notes, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
