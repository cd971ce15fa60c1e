package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mintcondition/cardshop/internal/application/checkout"
	appinv "github.com/mintcondition/cardshop/internal/application/inventory"
	"github.com/mintcondition/cardshop/internal/application/lifecycle"
	"github.com/mintcondition/cardshop/internal/config"
	dominv "github.com/mintcondition/cardshop/internal/domain/inventory"
	"github.com/mintcondition/cardshop/internal/domain/storage"
	httptransport "github.com/mintcondition/cardshop/internal/infrastructure/http"
	"github.com/mintcondition/cardshop/internal/infrastructure/memory"
	"github.com/mintcondition/cardshop/internal/infrastructure/postgres"
	"github.com/mintcondition/cardshop/internal/metrics"
	"github.com/mintcondition/cardshop/internal/pkg/logging"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("storage_init_failed", zap.Error(err))
	}
	defer cleanup()

	met := metrics.New(prometheus.DefaultRegisterer)

	validator := checkout.NewValidator(cfg.DefaultCurrency)
	checkoutSvc := checkout.NewService(store, met)
	lifecycleSvc := lifecycle.NewService(store, met)
	inventorySvc := appinv.NewService(store)

	handler := httptransport.NewHandler(validator, checkoutSvc, lifecycleSvc, inventorySvc, cfg.AdminToken)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router(httptransport.Observability(baseLogger, met)))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		baseLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Manager, func(), error) {
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("storage_ready", zap.String("backend", "postgres"))
		return store, store.Close, nil
	}

	store := memory.NewStore()
	if err := seedDemoInventory(ctx, store); err != nil {
		return nil, nil, err
	}
	logger.Info("storage_ready", zap.String("backend", "memory"))
	return store, func() {}, nil
}

// seedDemoInventory gives the in-memory dev mode a few variations to sell.
func seedDemoInventory(ctx context.Context, store storage.Manager) error {
	records := []*dominv.Record{
		{ProductID: 101, Name: "Charizard Holo", Condition: "NM", Language: "EN", Price: decimal.NewFromFloat(249.90), StockQuantity: 3},
		{ProductID: 102, Name: "Pikachu Promo", Condition: "LP", Language: "JP", Price: decimal.NewFromFloat(18.50), StockQuantity: 12},
		{ProductID: 103, Name: "Blastoise 1st Edition", Condition: "MP", Language: "EN", Price: decimal.NewFromFloat(89.00), StockQuantity: 5},
	}
	return store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		for _, rec := range records {
			if err := tx.Inventory().Put(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}
