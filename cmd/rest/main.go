package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advisor-command-centre-be/internal/bootstrap"
	"advisor-command-centre-be/internal/config"
	"advisor-command-centre-be/internal/model"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/server"
	"advisor-command-centre-be/internal/tracer"
	"advisor-command-centre-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.InitTracer(ctx, sysLogger)
	defer shutdownTracer(context.Background())

	// 2. Database
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if cfg.Database.AutoMigrate {
		if err := model.AutoMigrate(gormDB); err != nil {
			log.Panicf("AutoMigrate failed: %v", err)
		}
	}

	// 3. Dependencies
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	if err != nil {
		log.Panicf("Bootstrap failed: %v", err)
	}
	defer container.Close()

	srv := server.New(cfg, container)

	// 4. Run everything until a signal arrives or one part fails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.WebSocketHub.Run(gctx) })
	g.Go(func() error { return container.RecordingProcessor.Run(gctx) })
	g.Go(func() error { return container.StatusFeedRelay.Run(gctx) })
	g.Go(func() error { return container.SettingsCache.Run(gctx, nil) })
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sysLogger.Error("MAIN", "Stopped with error", map[string]interface{}{"error": err})
		return
	}
	sysLogger.Info("MAIN", "Shut down cleanly", nil)
}
