package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	dominv "github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/order"
	"github.com/mintcondition/cardshop/internal/domain/storage"
	"github.com/mintcondition/cardshop/internal/metrics"
	"github.com/mintcondition/cardshop/internal/pkg/logging"
)

// ItemError marks a submission rejected because of one specific line item:
// either the referenced inventory record is missing or its stock cannot
// cover the requested quantity. It names the item so the shopper knows what
// to remove.
type ItemError struct {
	Name string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.Name, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Service turns a normalized order submission into a durable order while
// reserving stock. The whole reservation runs inside one transaction scope:
// either the order header, every line and every stock decrement commit
// together, or nothing is persisted at all.
type Service struct {
	store  storage.Manager
	met    *metrics.Metrics
	tracer trace.Tracer
}

func NewService(store storage.Manager, met *metrics.Metrics) *Service {
	return &Service{
		store:  store,
		met:    met,
		tracer: otel.Tracer("checkout"),
	}
}

// PlaceOrder reserves stock for every line and persists the order with
// status pending. Items are decremented sequentially in request order; the
// first line whose conditional decrement does not apply aborts the whole
// transaction. Concurrency control is purely the per-row conditional update:
// a losing submission fails fast and is never retried here.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (_ *order.Order, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "checkout"))

	ctx, span := s.tracer.Start(ctx, "checkout.place_order", trace.WithAttributes(
		attribute.Int("order.item_count", len(req.Items)),
		attribute.String("order.currency", req.Currency),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "place_order_failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	logger.Info("place_order_start",
		zap.String("customer_email", req.Customer.Email),
		zap.Int("item_count", len(req.Items)),
	)

	total := decimal.Zero
	for i := range req.Items {
		it := req.Items[i]
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	var placed *order.Order
	err = s.store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		o := &order.Order{
			CustomerEmail:   req.Customer.Email,
			CustomerName:    req.Customer.Name,
			CustomerAddress: req.Customer.Address,
			CustomerPhone:   req.Customer.Phone,
			Total:           total,
			Currency:        req.Currency,
			Notes:           req.Notes,
			Status:          order.StatusPending,
		}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range req.Items {
			line := req.Items[i]

			rec, err := tx.Inventory().Get(ctx, line.InventoryID)
			if errors.Is(err, dominv.ErrNotFound) {
				return &ItemError{Name: line.Name, Err: dominv.ErrNotFound}
			}
			if err != nil {
				return fmt.Errorf("load inventory %d: %w", line.InventoryID, err)
			}

			item := order.Item{
				OrderID:     o.ID,
				InventoryID: line.InventoryID,
				ProductID:   line.ProductID,
				Name:        line.Name,
				Condition:   rec.Condition,
				Language:    rec.Language,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			}
			item.ComputeLineTotal()
			if err := tx.Orders().InsertItem(ctx, &item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			ok, err := tx.Inventory().TryDecrement(ctx, line.InventoryID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement inventory %d: %w", line.InventoryID, err)
			}
			if !ok {
				return &ItemError{Name: line.Name, Err: dominv.ErrInsufficientStock}
			}

			o.Items = append(o.Items, item)
		}

		placed = o
		return nil
	})
	if err != nil {
		outcome := "error"
		var itemErr *ItemError
		if errors.As(err, &itemErr) {
			outcome = "rejected"
			s.met.StockConflicts.Inc()
		}
		s.met.OrdersCreated.WithLabelValues(outcome).Inc()
		logger.Warn("place_order_failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}

	s.met.OrdersCreated.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	logger.Info("place_order_success",
		zap.Int64("order_id", placed.ID),
		zap.String("status", string(placed.Status)),
		zap.String("total", placed.Total.String()),
	)
	return placed, nil
}
