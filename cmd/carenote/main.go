package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"carenote/internal/amqp"
	"carenote/internal/config"
	apphttp "carenote/internal/http"
	"carenote/internal/identity"
	applog "carenote/internal/log"
	"carenote/internal/services"
	"carenote/internal/storage"
	"carenote/internal/verify"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting carenote")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Select the blob backend. SQLite persists across restarts; memory is
	// for local development and tests.
	var blobs storage.BlobStore
	switch cfg.DataBackend {
	case "sqlite":
		sqliteStore, err := storage.NewSQLiteBlobStore(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		blobs = sqliteStore
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		blobs = storage.NewMemoryBlobStore()
		logger.Info("Initialized memory backend")
	}

	// The AMQP publisher feeds the export worker. The server stays up
	// without it; records are then picked up by the worker's periodic
	// export pass instead.
	var publisher services.RecordPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, records will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	}

	records := services.NewRecordService(storage.NewRecordStore(blobs), publisher)
	idm := identity.NewManager(blobs)

	var verifier verify.Verifier
	switch cfg.OTPMode {
	case "http":
		verifier = verify.NewHTTPVerifier(cfg.OTPBaseURL)
		logger.Info("Using HTTP verification", "base_url", cfg.OTPBaseURL)
	default:
		verifier = verify.DemoVerifier{}
		logger.Info("Using demo verification")
	}

	srv := apphttp.NewServer(":"+cfg.Port, records, idm, verifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Server listening", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
}
