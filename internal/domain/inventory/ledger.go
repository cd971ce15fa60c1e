package inventory

import "context"

// Ledger is the sole mutator of stock counts. Like order.Repository it is
// transaction-scoped: both operations commit or roll back with the
// surrounding storage.Tx.
type Ledger interface {
	Get(ctx context.Context, id int64) (*Record, error)
	// TryDecrement reduces stock by qty only if the current stock covers it,
	// with the check and the write in one atomic statement. It reports false
	// when stock is insufficient or the record does not exist.
	TryDecrement(ctx context.Context, id int64, qty int) (bool, error)
	// Increment restores stock unconditionally. There is no upper bound
	// check; callers own the decision to compensate.
	Increment(ctx context.Context, id int64, qty int) error
	// Put inserts the record, or replaces descriptive fields, price and
	// stock when a record with the same ID exists. New records get an ID
	// assigned.
	Put(ctx context.Context, rec *Record) error
}
