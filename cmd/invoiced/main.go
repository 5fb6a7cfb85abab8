package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deffeddef/invoice-extractor-app/internal/app"
	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/modelfile"
	"github.com/deffeddef/invoice-extractor-app/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml/toml/json)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Model.Download {
		if _, err := modelfile.Ensure(ctx, cfg.Model.URL, cfg.Model.Dir, cfg.Model.Name, logger); err != nil {
			logger.Error("failed to provision model file", "error", err)
			os.Exit(1)
		}
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	// Preload the model so the first upload does not pay for it; failures are retried lazily.
	go func() {
		if err := a.Model.Warm(ctx); err != nil {
			logger.Warn("model warmup failed; will retry on first request", "error", err)
		}
	}()

	if lvl := common.ParseLevel(cfg.Log.Level); lvl > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(a.Processor, a.Exporter, server.Options{
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		ModelLoaded:    a.Model.Loaded,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("invoice extractor listening", "addr", cfg.Server.Addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("invoice extractor stopped")
}
