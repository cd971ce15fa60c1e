package lifecycle

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mintcondition/cardshop/internal/domain/order"
	"github.com/mintcondition/cardshop/internal/domain/storage"
	"github.com/mintcondition/cardshop/internal/metrics"
	"github.com/mintcondition/cardshop/internal/pkg/logging"
)

// Result is the outcome of a status update. Restored reports whether this
// call returned reserved stock to inventory; a repeated cancellation comes
// back with Restored false.
type Result struct {
	Order    *order.Order
	Restored bool
	Message  string
}

// Service governs order status transitions. Entering cancelled from a
// non-cancelled state is the only transition with a side effect: every line
// quantity is restored to inventory, exactly once, inside the same
// transaction as the status write.
type Service struct {
	store  storage.Manager
	met    *metrics.Metrics
	tracer trace.Tracer
}

func NewService(store storage.Manager, met *metrics.Metrics) *Service {
	return &Service{
		store:  store,
		met:    met,
		tracer: otel.Tracer("lifecycle"),
	}
}

// UpdateStatus moves an order to newStatus and applies the transition's side
// effect. The order's own status column is the idempotency guard for stock
// restoration: the cancellation write is conditional on the row not already
// being cancelled, and only the caller whose conditional write applied
// performs the compensating increments. That closes both the sequential and
// the concurrent double-cancel case the same way the stock decrement closes
// oversell.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus order.Status, notes *string) (_ *Result, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "lifecycle"))

	ctx, span := s.tracer.Start(ctx, "lifecycle.update_status", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.new_status", string(newStatus)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update_status_failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	var res Result
	err = s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		current, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}

		switch order.TransitionEffect(current.Status, newStatus) {
		case order.EffectRestoreStock:
			won, err := tx.Orders().MarkCancelled(ctx, id, notes)
			if err != nil {
				return fmt.Errorf("mark cancelled: %w", err)
			}
			if won {
				items, err := tx.Orders().Items(ctx, id)
				if err != nil {
					return fmt.Errorf("load items: %w", err)
				}
				for _, it := range items {
					if err := tx.Inventory().Increment(ctx, it.InventoryID, it.Quantity); err != nil {
						return fmt.Errorf("restore inventory %d: %w", it.InventoryID, err)
					}
				}
				res.Restored = true
			} else if notes != nil {
				// Lost the transition to a concurrent canceller; the notes
				// update still applies.
				if err := tx.Orders().SetStatus(ctx, id, order.StatusCancelled, notes); err != nil {
					return err
				}
			}
		default:
			if err := tx.Orders().SetStatus(ctx, id, newStatus, notes); err != nil {
				return err
			}
		}

		updated, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		updated.Items, err = tx.Orders().Items(ctx, id)
		if err != nil {
			return err
		}
		res.Order = updated
		return nil
	})
	if err != nil {
		logger.Warn("update_status_failed", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}

	s.met.StatusUpdates.WithLabelValues(string(newStatus)).Inc()
	if res.Restored {
		s.met.StockRestores.Inc()
		res.Message = fmt.Sprintf("order status updated to %s; reserved inventory restored", newStatus)
	} else {
		res.Message = fmt.Sprintf("order status updated to %s", newStatus)
	}

	span.SetAttributes(attribute.Bool("order.inventory_restored", res.Restored))
	logger.Info("update_status_success",
		zap.Int64("order_id", id),
		zap.String("status", string(newStatus)),
		zap.Bool("inventory_restored", res.Restored),
	)
	return &res, nil
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*order.Order, error) {
	var found *order.Order
	err := s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		o, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		o.Items, err = tx.Orders().Items(ctx, id)
		if err != nil {
			return err
		}
		found = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns order headers, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var orders []order.Order
	err := s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
