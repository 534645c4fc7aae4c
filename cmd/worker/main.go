package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/waplane/waplane/config"
	"github.com/waplane/waplane/internal/app"
	"github.com/waplane/waplane/pkg/logger"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// For testing purposes - allows us to mock the signal channel
var signalNotify = signal.Notify

// runWorker contains the core worker logic, extracted for testability
func runWorker(cfg *config.Config, appLogger logger.Logger) error {
	worker := app.NewApp(cfg, app.WithLogger(appLogger))

	if err := worker.Initialize(); err != nil {
		appLogger.WithField("error", err.Error()).Error("Failed to initialize worker")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signalNotify(shutdown, os.Interrupt, syscall.SIGTERM)

	workerError := make(chan error, 1)
	go func() {
		appLogger.Info("Worker started successfully")
		workerError <- worker.Start(ctx)
	}()

	select {
	case err := <-workerError:
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Worker error")
		}
		worker.Shutdown()
		return err
	case sig := <-shutdown:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received - starting graceful shutdown")
		cancel()
		<-workerError
		return worker.Shutdown()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg.LogLevel)

	if err := runWorker(cfg, appLogger); err != nil {
		osExit(1)
	}
}
