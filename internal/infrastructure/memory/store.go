// Package memory implements the storage contract on plain maps. It backs
// local development and the test suite. Do holds the store mutex for the
// whole transaction, so scopes execute serially; combined with the staged
// snapshot this gives the same commit-or-nothing and conditional-decrement
// semantics as the postgres backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/order"
	"github.com/mintcondition/cardshop/internal/domain/storage"
)

type Store struct {
	mu sync.Mutex

	inventory map[int64]inventory.Record
	orders    map[int64]order.Order
	items     map[int64][]order.Item

	nextInventoryID int64
	nextOrderID     int64
	nextItemID      int64
}

func NewStore() *Store {
	return &Store{
		inventory: make(map[int64]inventory.Record),
		orders:    make(map[int64]order.Order),
		items:     make(map[int64][]order.Item),
	}
}

// Do runs fn against a staged copy of the store. The copy replaces the live
// state only when fn returns nil; an error or panic discards it entirely.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.begin()
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.commit(t)
	return nil
}

func (s *Store) begin() *tx {
	t := &tx{
		inventory:       make(map[int64]inventory.Record, len(s.inventory)),
		orders:          make(map[int64]order.Order, len(s.orders)),
		items:           make(map[int64][]order.Item, len(s.items)),
		nextInventoryID: s.nextInventoryID,
		nextOrderID:     s.nextOrderID,
		nextItemID:      s.nextItemID,
	}
	for id, rec := range s.inventory {
		t.inventory[id] = rec
	}
	for id, o := range s.orders {
		t.orders[id] = o
	}
	for id, its := range s.items {
		t.items[id] = append([]order.Item(nil), its...)
	}
	return t
}

func (s *Store) commit(t *tx) {
	s.inventory = t.inventory
	s.orders = t.orders
	s.items = t.items
	s.nextInventoryID = t.nextInventoryID
	s.nextOrderID = t.nextOrderID
	s.nextItemID = t.nextItemID
}

type tx struct {
	inventory map[int64]inventory.Record
	orders    map[int64]order.Order
	items     map[int64][]order.Item

	nextInventoryID int64
	nextOrderID     int64
	nextItemID      int64
}

func (t *tx) Orders() order.Repository    { return &orderRepository{tx: t} }
func (t *tx) Inventory() inventory.Ledger { return &inventoryRepository{tx: t} }

type orderRepository struct {
	tx *tx
}

func (r *orderRepository) Insert(ctx context.Context, o *order.Order) error {
	_ = ctx
	r.tx.nextOrderID++
	now := time.Now().UTC()
	o.ID = r.tx.nextOrderID
	o.CreatedAt = now
	o.UpdatedAt = now

	stored := *o
	stored.Items = nil
	r.tx.orders[o.ID] = stored
	return nil
}

func (r *orderRepository) InsertItem(ctx context.Context, it *order.Item) error {
	_ = ctx
	if _, ok := r.tx.orders[it.OrderID]; !ok {
		return order.ErrNotFound
	}
	r.tx.nextItemID++
	it.ID = r.tx.nextItemID
	r.tx.items[it.OrderID] = append(r.tx.items[it.OrderID], *it)
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	_ = ctx
	o, ok := r.tx.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	clone := o
	return &clone, nil
}

func (r *orderRepository) Items(ctx context.Context, orderID int64) ([]order.Item, error) {
	_ = ctx
	return append([]order.Item(nil), r.tx.items[orderID]...), nil
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	_ = ctx
	all := make([]order.Order, 0, len(r.tx.orders))
	for _, o := range r.tx.orders {
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *orderRepository) SetStatus(ctx context.Context, id int64, st order.Status, notes *string) error {
	_ = ctx
	o, ok := r.tx.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = st
	if notes != nil {
		o.Notes = *notes
	}
	o.UpdatedAt = time.Now().UTC()
	r.tx.orders[id] = o
	return nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id int64, notes *string) (bool, error) {
	_ = ctx
	o, ok := r.tx.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.Status == order.StatusCancelled {
		return false, nil
	}
	o.Status = order.StatusCancelled
	if notes != nil {
		o.Notes = *notes
	}
	o.UpdatedAt = time.Now().UTC()
	r.tx.orders[id] = o
	return true, nil
}

type inventoryRepository struct {
	tx *tx
}

func (r *inventoryRepository) Get(ctx context.Context, id int64) (*inventory.Record, error) {
	_ = ctx
	rec, ok := r.tx.inventory[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	clone := rec
	return &clone, nil
}

func (r *inventoryRepository) TryDecrement(ctx context.Context, id int64, qty int) (bool, error) {
	_ = ctx
	if qty <= 0 {
		return false, inventory.ErrInvalidQuantity
	}
	rec, ok := r.tx.inventory[id]
	if !ok || rec.StockQuantity < qty {
		return false, nil
	}
	rec.StockQuantity -= qty
	rec.UpdatedAt = time.Now().UTC()
	r.tx.inventory[id] = rec
	return true, nil
}

func (r *inventoryRepository) Increment(ctx context.Context, id int64, qty int) error {
	_ = ctx
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	rec, ok := r.tx.inventory[id]
	if !ok {
		return inventory.ErrNotFound
	}
	rec.StockQuantity += qty
	rec.UpdatedAt = time.Now().UTC()
	r.tx.inventory[id] = rec
	return nil
}

func (r *inventoryRepository) Put(ctx context.Context, rec *inventory.Record) error {
	_ = ctx
	if rec.ID == 0 {
		r.tx.nextInventoryID++
		rec.ID = r.tx.nextInventoryID
	} else if rec.ID > r.tx.nextInventoryID {
		r.tx.nextInventoryID = rec.ID
	}
	rec.UpdatedAt = time.Now().UTC()
	r.tx.inventory[rec.ID] = *rec
	return nil
}
