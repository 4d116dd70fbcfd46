package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/activities"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/auth"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/config"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/database"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/handlers"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/router"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/service"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/websocket"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := websocket.NewHub(logger, cfg.CORS.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	bank := ledger.NewMemoryBank()
	opts := []ledger.Option{
		ledger.WithLogger(logger.WithField("component", "ledger")),
		ledger.WithPublisher(hub),
		ledger.WithBank(bank),
	}
	if store != nil {
		opts = append(opts, ledger.WithStore(store))
	}
	l, err := ledger.New(ctx, cfg.LedgerOptions(), opts...)
	if err != nil {
		return err
	}
	// accounts live in memory; a restored ledger's holdings are backed again
	holdings := l.Status(ctx).Holdings
	bank.FundReserve(holdings)
	logger.WithFields(logrus.Fields{
		"admin":    l.Admin(),
		"store":    cfg.Store.Backend,
		"paused":   l.Paused(),
		"holdings": holdings.String(),
	}).Info("Ledger ready")

	// The worker runs in-process so settlement goes through the same ledger.
	var temporalClient client.Client
	if cfg.Temporal.Enabled {
		logger.WithField("host", cfg.Temporal.Host).Info("Connecting to Temporal")
		temporalClient, err = client.Dial(client.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
			Logger:    newTemporalLogger(logger),
		})
		if err != nil {
			return err
		}
		defer temporalClient.Close()

		w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
		w.RegisterWorkflow(workflows.RefundSettlementWorkflow)
		acts := activities.NewActivities(l)
		w.RegisterActivityWithOptions(acts.SettleRefund, activity.RegisterOptions{Name: "SettleRefund"})
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		logger.WithField("task_queue", cfg.Temporal.TaskQueue).Info("Refund settlement worker started")
	}

	ledgerService := service.NewLedgerService(l, temporalClient, service.Options{
		TaskQueue:                  cfg.Temporal.TaskQueue,
		RefundAuthorizationTimeout: cfg.Temporal.RefundAuthorizationTimeout,
		Accounts:                   bank,
	}, logger.WithField("component", "service"))

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.LoginWindow)
	h := handlers.NewHandler(ledgerService, tokens, logger.WithField("component", "http"))
	r := router.SetupRouter(h, hub, tokens, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured snapshot store, or nil for the in-memory
// backend, along with a function releasing its resources.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (ledger.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.Store.DatabaseURL, database.PoolConfig{
			MaxOpenConns:    cfg.Store.MaxConnections,
			MaxIdleConns:    cfg.Store.MaxIdleConnections,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		store := database.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Connected to Postgres snapshot store")
		return store, func() { db.Close() }, nil

	case config.StoreBadger:
		store, err := database.OpenBadger(cfg.Store.BadgerDir, logger.WithField("component", "badger"))
		if err != nil {
			return nil, nil, err
		}
		gc, err := database.ScheduleValueLogGC(store, cfg.Store.GCSchedule, logger)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.WithField("dir", cfg.Store.BadgerDir).Info("Opened Badger snapshot store")
		return store, func() {
			<-gc.Stop().Done()
			store.Close()
		}, nil

	default:
		return nil, func() {}, nil
	}
}
