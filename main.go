package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kambios/internal/api"
	"kambios/internal/config"
	"kambios/internal/journal"
	"kambios/internal/logging"
	"kambios/internal/middleware"
	"kambios/internal/renamer"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Resolve(os.Getenv("KAMBIOS_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize journal
	var rec journal.Recorder = journal.Nop{}
	if cfg.Journal.Enabled {
		j, err := journal.Open(journal.Options{
			Path:            cfg.Journal.Path,
			CacheSize:       cfg.Journal.CacheSize,
			CompressMinSize: cfg.Journal.CompressMinSize,
			Logger:          logger.Logger,
		})
		if err != nil {
			logger.Fatal("failed to open journal", zap.String("path", cfg.Journal.Path), zap.Error(err))
		}
		rec = j
	}

	r := renamer.New(renamer.Options{
		SidecarName: cfg.SidecarName,
		Source:      "kambios_api",
		Natural:     cfg.NaturalSort,
		Journal:     rec,
		Logger:      logger.Logger,
	})
	defer r.Close()

	// Set up router
	mux := http.NewServeMux()
	api.NewRenameHandler(r, logger).Register(mux)

	// Apply middleware
	handler := middleware.Chain(
		mux,
		middleware.Recover(logger),
		middleware.Logger(logger),
		middleware.RequestID,
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	// Start server
	logger.Info("starting server", zap.String("address", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
