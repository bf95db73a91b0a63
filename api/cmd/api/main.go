package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dental-bot/api/internal/app"
	"dental-bot/api/internal/config"
	"dental-bot/api/internal/httpserver"
	"dental-bot/api/internal/inflight"
	"dental-bot/api/internal/logging"
	"dental-bot/api/internal/metrics"
	"dental-bot/api/internal/scan"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics.Register()

	engines, closeEngines, err := app.Engines(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("engines", zap.Error(err))
	}
	defer closeEngines()

	handler := httpserver.NewRouter(httpserver.Options{
		Logger: logger.Named("http"),
		Health: "ok",
		Scan: &httpserver.ScanHandler{
			Engines:        engines,
			Scanner:        scan.NewPipeline(logger, cfg.MaxDimension),
			Guard:          inflight.New(),
			Logger:         logger.Named("scan_api"),
			Timeout:        cfg.ScanTimeout,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("dental scan api listening", zap.String("addr", server.Addr))
	if err := httpserver.Serve(server, 15*time.Second, logger, nil, nil); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
