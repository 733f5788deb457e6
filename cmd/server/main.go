package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/config"
	"github.com/mamadbah2/facility-ledger/internal/repository/mongodb"
	"github.com/mamadbah2/facility-ledger/internal/repository/sheets"
	"github.com/mamadbah2/facility-ledger/internal/scheduler"
	"github.com/mamadbah2/facility-ledger/internal/server/handlers"
	"github.com/mamadbah2/facility-ledger/internal/server/router"
	commandsvc "github.com/mamadbah2/facility-ledger/internal/service/commands"
	inventorysvc "github.com/mamadbah2/facility-ledger/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/facility-ledger/internal/service/reporting"
	requisitionsvc "github.com/mamadbah2/facility-ledger/internal/service/requisition"
	whatsappsvc "github.com/mamadbah2/facility-ledger/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/facility-ledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/facility-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}
	ledgerStore := sheets.NewLedgerStore(sheetsRepo, cfg.Sheets.LedgerSheet, logger.Named(baseLogger, "repo.ledger"))

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	inventory := inventorysvc.NewService(ledgerStore, logger.Named(baseLogger, "svc.inventory"))
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := inventory.Load(loadCtx); err != nil {
		// The API retries the load on first use.
		baseLogger.Warn("initial ledger load failed", zap.Error(err))
	}
	cancelLoad()

	requisitions := requisitionsvc.NewService(inventory, mongoRepo, logger.Named(baseLogger, "svc.requisition"))
	reports := reportingsvc.NewService(inventory, logger.Named(baseLogger, "svc.reporting"))
	commandDispatcher := commandsvc.NewService(inventory, requisitions, logger.Named(baseLogger, "svc.commands"))

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp messaging enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, chat commands and alerts disabled")
	}

	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, logger.Named(baseLogger, "svc.whatsapp"))
	webhookHandler := handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.whatsapp"))
	ledgerHandler := handlers.NewLedgerHandler(inventory, requisitions, reports, logger.Named(baseLogger, "handlers.ledger"))
	engine := router.New(webhookHandler, ledgerHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(*cfg, requisitions, reports, messagingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
