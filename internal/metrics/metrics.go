package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every prometheus collector the service emits. Collectors are
// created once here and handed to the components via DI; nothing registers
// metrics ad hoc inside request handling.
type Metrics struct {
	OrdersCreated   *prometheus.CounterVec
	StockConflicts  prometheus.Counter
	StatusUpdates   *prometheus.CounterVec
	StockRestores   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Order submissions by outcome.",
			},
			[]string{"outcome"},
		),
		StockConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_stock_conflicts_total",
				Help: "Order submissions rejected because a conditional stock decrement did not apply.",
			},
		),
		StatusUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_updates_total",
				Help: "Order status updates by target status.",
			},
			[]string{"status"},
		),
		StockRestores: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_restores_total",
				Help: "Cancellations that restored reserved stock.",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.StockConflicts,
		m.StatusUpdates,
		m.StockRestores,
		m.RequestDuration,
	)
	return m
}
