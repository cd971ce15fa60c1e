// Package storage defines the explicit unit-of-work contract shared by the
// postgres and in-memory backends. Every multi-step write in the system goes
// through Manager.Do; repositories are only reachable through the Tx handle
// it provides, which keeps ad-hoc writes on an implicitly shared connection
// out of the codebase.
package storage

import (
	"context"

	"github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/order"
)

// Tx is one open transaction scope.
type Tx interface {
	Orders() order.Repository
	Inventory() inventory.Ledger
}

// Manager opens transaction scopes.
type Manager interface {
	// Do runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back when fn returns an error or panics, so
	// no partial write ever survives a failed fn.
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
