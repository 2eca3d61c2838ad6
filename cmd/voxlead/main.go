package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxlead/voxlead"
	"github.com/voxlead/voxlead/bridge"
	"github.com/voxlead/voxlead/internal/config"
	"github.com/voxlead/voxlead/internal/server"
	"github.com/voxlead/voxlead/internal/store"
	"github.com/voxlead/voxlead/internal/telemetry"
	"github.com/voxlead/voxlead/realtime"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer("voxlead", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	csvSink, err := store.OpenCSV(cfg.Leads.CSVPath)
	if err != nil {
		log.Fatalf("Failed to open lead file: %v", err)
	}
	defer csvSink.Close()

	dial := func(ctx context.Context) (bridge.AISession, error) {
		return realtime.Dial(ctx, realtime.Config{
			URL:    cfg.OpenAI.RealtimeURL,
			APIKey: cfg.OpenAI.APIKey,
			Model:  cfg.OpenAI.Model,
		})
	}

	handler := server.NewHandler(
		logger,
		cfg.Server.PublicURL,
		cfg.OpenAI.Voice,
		db,
		store.Tee(csvSink, db),
		dial,
	)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Get("/healthz", handler.Health)
	srv.Router.Post("/voice/answer", handler.Answer)
	srv.Router.Get("/voice/stream", handler.Stream)

	logger.Info("voxlead starting",
		slog.String("version", voxlead.Version),
		slog.String("model", cfg.OpenAI.Model),
		slog.String("leads", cfg.Leads.CSVPath),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
}
