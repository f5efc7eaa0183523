package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/algopay/backend/internal/config"
	"github.com/vanshika/algopay/backend/internal/gateway"
	"github.com/vanshika/algopay/backend/internal/ledger"
	"github.com/vanshika/algopay/backend/internal/logging"
	"github.com/vanshika/algopay/backend/internal/server"
	"github.com/vanshika/algopay/backend/internal/service"
	"github.com/vanshika/algopay/backend/internal/wallet"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	gatewayClient, err := gateway.NewAlgodClient(gateway.Options{
		Address: cfg.Algod.Address,
		Token:   cfg.Algod.Token,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create algod client", "error", err)
		os.Exit(1)
	}

	store, err := ledger.NewMongoStore(ctx, ledger.Options{
		URI:            cfg.Ledger.URI,
		Database:       cfg.Ledger.Database,
		Collection:     cfg.Ledger.Collection,
		ConnectTimeout: cfg.Ledger.ConnectTimeout,
		MaxPoolSize:    cfg.Ledger.MaxPoolSize,
	})
	if err != nil {
		logger.Error("failed to create ledger store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing ledger store failed", "error", err)
		}
	}()

	submitter := service.NewSubmitter(gatewayClient, store, wallet.MnemonicResolver{}, wallet.PaymentSigner{}, logger)
	reconciler := service.NewReconciler(gatewayClient, store, logger)
	apiHandlers := server.NewAPIHandlers(logger, submitter, reconciler, store)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health: server.MultiHealthService{
			server.NodeHealthService{Client: gatewayClient},
			server.StoreHealthService{Store: store},
		},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if cfg.Reconciler.Enabled {
		poller := service.NewPoller(reconciler, store,
			cfg.Reconciler.Interval, cfg.Reconciler.BatchSize, cfg.Reconciler.Workers, logger)
		go poller.Run(pollerCtx)
		logger.Info("reconciliation poller started", "interval", cfg.Reconciler.Interval)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
