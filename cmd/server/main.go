package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/config"
	"github.com/mamadbah2/hivelog/internal/repository/mongodb"
	"github.com/mamadbah2/hivelog/internal/scheduler"
	"github.com/mamadbah2/hivelog/internal/server/handlers"
	"github.com/mamadbah2/hivelog/internal/server/router"
	authsvc "github.com/mamadbah2/hivelog/internal/service/auth"
	calendarsvc "github.com/mamadbah2/hivelog/internal/service/calendar"
	journalsvc "github.com/mamadbah2/hivelog/internal/service/journal"
	syncsvc "github.com/mamadbah2/hivelog/internal/service/sync"
	"github.com/mamadbah2/hivelog/internal/store"
	"github.com/mamadbah2/hivelog/pkg/clients/anthropic"
	"github.com/mamadbah2/hivelog/pkg/clients/identity"
	"github.com/mamadbah2/hivelog/pkg/clients/weather"
	"github.com/mamadbah2/hivelog/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	localStore, err := store.NewFileStore(cfg.Store.DataDir)
	if err != nil {
		baseLogger.Fatal("failed to init local store", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	journalSvc := journalsvc.NewService(localStore, baseLogger.Named("svc.journal"))
	if err := journalSvc.Load(); err != nil {
		baseLogger.Fatal("failed to load journal from local store", zap.Error(err))
	}

	syncScheduler := syncsvc.NewScheduler(mongoRepo, journalSvc,
		time.Duration(cfg.Sync.DebounceMillis)*time.Millisecond, baseLogger.Named("svc.sync"))
	defer syncScheduler.Stop()
	journalSvc.SetNotifier(syncScheduler)

	identityClient := identity.NewClient(cfg.Identity, localStore)
	observer := authsvc.NewObserver(identityClient, mongoRepo, journalSvc, syncScheduler, baseLogger.Named("svc.auth"))
	observer.Start(context.Background())
	defer observer.Close()

	// Initialize AI Client
	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, advice assistant disabled")
	}

	weatherClient := weather.NewClient(cfg.Weather)
	exporter := calendarsvc.NewExporter(context.Background(), cfg.Calendar, baseLogger.Named("svc.calendar"))

	journalHandler := handlers.NewJournalHandler(journalSvc, syncScheduler, baseLogger.Named("handlers.journal"))
	authHandler := handlers.NewAuthHandler(observer, identityClient, baseLogger.Named("handlers.auth"))
	lookupHandler := handlers.NewLookupHandler(weatherClient, aiClient, exporter, baseLogger.Named("handlers.lookup"))
	engine := router.New(journalHandler, authHandler, lookupHandler, baseLogger.Named("router"))

	// Initialize Scheduler
	sched := scheduler.NewScheduler(cfg.Sync, syncScheduler, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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
