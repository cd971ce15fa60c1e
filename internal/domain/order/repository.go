package order

import "context"

// Repository is the transaction-scoped view of order storage. Instances are
// only reachable through an open storage.Tx, so every call commits or rolls
// back with the rest of that transaction.
type Repository interface {
	// Insert persists a new order header and fills in ID, CreatedAt and
	// UpdatedAt.
	Insert(ctx context.Context, o *Order) error
	// InsertItem persists one order line and fills in its ID.
	InsertItem(ctx context.Context, it *Item) error
	// Get returns the order header. Items are loaded separately.
	Get(ctx context.Context, id int64) (*Order, error)
	Items(ctx context.Context, orderID int64) ([]Item, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	// SetStatus updates status, notes (when non-nil) and the updated-at
	// timestamp. Returns ErrNotFound for unknown ids.
	SetStatus(ctx context.Context, id int64, st Status, notes *string) error
	// MarkCancelled sets the status to cancelled only if the row is not
	// already cancelled, in a single conditional statement. The boolean
	// reports whether this call won the transition; concurrent cancellers
	// serialize on the row, so at most one caller ever wins.
	MarkCancelled(ctx context.Context, id int64, notes *string) (bool, error)
}
