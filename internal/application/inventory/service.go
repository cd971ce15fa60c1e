package inventory

import (
	"context"

	"go.uber.org/zap"

	dominv "github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/storage"
	"github.com/mintcondition/cardshop/internal/pkg/logging"
)

// Service exposes the admin-side stock management operations. Checkout and
// cancellation never go through here; they mutate stock only via the
// transaction-scoped ledger.
type Service struct {
	store storage.Manager
}

func NewService(store storage.Manager) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id int64) (*dominv.Record, error) {
	var rec *dominv.Record
	err := s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		rec, err = tx.Inventory().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Set creates or replaces an inventory record. The write is unconditional;
// admin stock corrections overwrite whatever counter is there.
func (s *Service) Set(ctx context.Context, rec *dominv.Record) (*dominv.Record, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "inventory"))
	err := s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Inventory().Put(ctx, rec)
	})
	if err != nil {
		logger.Error("inventory_set_failed", zap.Int64("inventory_id", rec.ID), zap.Error(err))
		return nil, err
	}
	logger.Info("inventory_set",
		zap.Int64("inventory_id", rec.ID),
		zap.Int("stock_quantity", rec.StockQuantity),
	)
	return rec, nil
}
