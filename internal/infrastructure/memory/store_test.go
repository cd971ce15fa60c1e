package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/order"
	"github.com/mintcondition/cardshop/internal/domain/storage"
)

func seedRecord(t *testing.T, s *Store, stock int) int64 {
	t.Helper()
	rec := &inventory.Record{
		ProductID:     101,
		Name:          "Charizard Holo",
		Condition:     "NM",
		Language:      "EN",
		Price:         decimal.NewFromFloat(249.90),
		StockQuantity: stock,
	}
	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Inventory().Put(ctx, rec)
	})
	require.NoError(t, err)
	return rec.ID
}

func stockOf(t *testing.T, s *Store, id int64) int {
	t.Helper()
	var got int
	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		rec, err := tx.Inventory().Get(ctx, id)
		if err != nil {
			return err
		}
		got = rec.StockQuantity
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestTryDecrement_Conditional(t *testing.T) {
	s := NewStore()
	id := seedRecord(t, s, 5)

	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		ok, err := tx.Inventory().TryDecrement(ctx, id, 3)
		require.NoError(t, err)
		assert.True(t, ok)

		// Remaining 2; a further 3 must not apply.
		ok, err = tx.Inventory().TryDecrement(ctx, id, 3)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stockOf(t, s, id))
}

func TestTryDecrement_MissingRecord(t *testing.T) {
	s := NewStore()

	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		ok, err := tx.Inventory().TryDecrement(ctx, 42, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestDo_RollbackDiscardsStagedWrites(t *testing.T) {
	s := NewStore()
	id := seedRecord(t, s, 5)

	boom := errors.New("boom")
	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		o := &order.Order{CustomerEmail: "a@b.c", CustomerName: "A", Status: order.StatusPending}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		ok, err := tx.Inventory().TryDecrement(ctx, id, 2)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Decrement rolled back, order never persisted.
	assert.Equal(t, 5, stockOf(t, s, id))
	err = s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		orders, err := tx.Orders().List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, orders)
		return nil
	})
	require.NoError(t, err)
}

func TestMarkCancelled_WinsExactlyOnce(t *testing.T) {
	s := NewStore()

	var id int64
	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		o := &order.Order{CustomerEmail: "a@b.c", CustomerName: "A", Status: order.StatusPending}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		id = o.ID
		return nil
	})
	require.NoError(t, err)

	err = s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		won, err := tx.Orders().MarkCancelled(ctx, id, nil)
		require.NoError(t, err)
		assert.True(t, won)

		won, err = tx.Orders().MarkCancelled(ctx, id, nil)
		require.NoError(t, err)
		assert.False(t, won)
		return nil
	})
	require.NoError(t, err)
}

func TestPut_AssignsIDAndOverwrites(t *testing.T) {
	s := NewStore()
	id := seedRecord(t, s, 5)
	require.Positive(t, id)

	err := s.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		rec, err := tx.Inventory().Get(ctx, id)
		require.NoError(t, err)
		rec.StockQuantity = 9
		rec.Price = decimal.NewFromInt(300)
		return tx.Inventory().Put(ctx, rec)
	})
	require.NoError(t, err)
	assert.Equal(t, 9, stockOf(t, s, id))
}
