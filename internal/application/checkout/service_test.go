package checkout_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintcondition/cardshop/internal/application/checkout"
	dominv "github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/storage"
	"github.com/mintcondition/cardshop/internal/infrastructure/memory"
	"github.com/mintcondition/cardshop/internal/metrics"
)

func newService(t *testing.T) (*checkout.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	met := metrics.New(prometheus.NewRegistry())
	return checkout.NewService(store, met), store
}

func seedInventory(t *testing.T, store *memory.Store, rec *dominv.Record) int64 {
	t.Helper()
	err := store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Inventory().Put(ctx, rec)
	})
	require.NoError(t, err)
	return rec.ID
}

func stockOf(t *testing.T, store *memory.Store, id int64) int {
	t.Helper()
	var got int
	err := store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
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

func orderCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	var n int
	err := store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		orders, err := tx.Orders().List(ctx, 100, 0)
		if err != nil {
			return err
		}
		n = len(orders)
		return nil
	})
	require.NoError(t, err)
	return n
}

func submission(invID int64, qty int) checkout.Request {
	price := decimal.NewFromFloat(249.90)
	return checkout.Request{
		Customer: checkout.Customer{Email: "collector@example.com", Name: "Ash Ketchum"},
		Items: []checkout.LineItem{
			{InventoryID: invID, ProductID: 101, Name: "Charizard Holo", Quantity: qty, UnitPrice: price},
		},
		Total:    price.Mul(decimal.NewFromInt(int64(qty))),
		Currency: "USD",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	svc, store := newService(t)
	invID := seedInventory(t, store, &dominv.Record{
		ProductID: 101, Name: "Charizard Holo", Condition: "NM", Language: "EN",
		Price: decimal.NewFromFloat(249.90), StockQuantity: 5,
	})

	placed, err := svc.PlaceOrder(context.Background(), submission(invID, 2))
	require.NoError(t, err)

	assert.Positive(t, placed.ID)
	assert.Equal(t, "pending", string(placed.Status))
	assert.True(t, placed.Total.Equal(decimal.NewFromFloat(499.80)))
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "NM", placed.Items[0].Condition)
	assert.Equal(t, "EN", placed.Items[0].Language)
	assert.True(t, placed.Items[0].LineTotal.Equal(decimal.NewFromFloat(499.80)))

	assert.Equal(t, 3, stockOf(t, store, invID))
}

func TestPlaceOrder_InsufficientStockLeavesNoTrace(t *testing.T) {
	svc, store := newService(t)
	invID := seedInventory(t, store, &dominv.Record{
		ProductID: 101, Name: "Charizard Holo",
		Price: decimal.NewFromFloat(249.90), StockQuantity: 5,
	})

	_, err := svc.PlaceOrder(context.Background(), submission(invID, 10))
	require.Error(t, err)

	var itemErr *checkout.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "Charizard Holo", itemErr.Name)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	assert.Equal(t, 5, stockOf(t, store, invID))
	assert.Zero(t, orderCount(t, store))
}

func TestPlaceOrder_UnknownInventoryReference(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.PlaceOrder(context.Background(), submission(999, 1))
	require.Error(t, err)

	var itemErr *checkout.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.ErrorIs(t, err, dominv.ErrNotFound)
	assert.Zero(t, orderCount(t, store))
}

func TestPlaceOrder_LaterItemFailureRollsBackEarlierDecrements(t *testing.T) {
	svc, store := newService(t)
	first := seedInventory(t, store, &dominv.Record{
		ProductID: 101, Name: "Charizard Holo",
		Price: decimal.NewFromFloat(249.90), StockQuantity: 5,
	})
	second := seedInventory(t, store, &dominv.Record{
		ProductID: 102, Name: "Pikachu Promo",
		Price: decimal.NewFromFloat(18.50), StockQuantity: 1,
	})

	req := checkout.Request{
		Customer: checkout.Customer{Email: "collector@example.com", Name: "Ash Ketchum"},
		Items: []checkout.LineItem{
			{InventoryID: first, ProductID: 101, Name: "Charizard Holo", Quantity: 2, UnitPrice: decimal.NewFromFloat(249.90)},
			{InventoryID: second, ProductID: 102, Name: "Pikachu Promo", Quantity: 5, UnitPrice: decimal.NewFromFloat(18.50)},
		},
		Total:    decimal.NewFromInt(1),
		Currency: "USD",
	}

	_, err := svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)

	var itemErr *checkout.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "Pikachu Promo", itemErr.Name)

	// The decrement applied to the first item inside the aborted scope must
	// not survive.
	assert.Equal(t, 5, stockOf(t, store, first))
	assert.Equal(t, 1, stockOf(t, store, second))
	assert.Zero(t, orderCount(t, store))
}

func TestPlaceOrder_ConcurrentSubmissionsNeverOversell(t *testing.T) {
	svc, store := newService(t)
	invID := seedInventory(t, store, &dominv.Record{
		ProductID: 101, Name: "Charizard Holo",
		Price: decimal.NewFromFloat(249.90), StockQuantity: 5,
	})

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), submission(invID, 3))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, stockOf(t, store, invID))
}

func TestPlaceOrder_SnapshotsSurviveInventoryEdits(t *testing.T) {
	svc, store := newService(t)
	invID := seedInventory(t, store, &dominv.Record{
		ProductID: 101, Name: "Charizard Holo", Condition: "NM",
		Price: decimal.NewFromFloat(249.90), StockQuantity: 5,
	})

	placed, err := svc.PlaceOrder(context.Background(), submission(invID, 1))
	require.NoError(t, err)

	// Rename and reprice the variation after the order exists.
	err = store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		rec, err := tx.Inventory().Get(ctx, invID)
		if err != nil {
			return err
		}
		rec.Name = "Charizard Holo (Reprint)"
		rec.Price = decimal.NewFromInt(10)
		return tx.Inventory().Put(ctx, rec)
	})
	require.NoError(t, err)

	var items []struct {
		name  string
		price decimal.Decimal
	}
	err = store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Orders().Items(ctx, placed.ID)
		if err != nil {
			return err
		}
		for _, it := range got {
			items = append(items, struct {
				name  string
				price decimal.Decimal
			}{it.Name, it.UnitPrice})
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "Charizard Holo", items[0].name)
	assert.True(t, items[0].price.Equal(decimal.NewFromFloat(249.90)))
}
