package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"dental-bot/api/internal/app"
	"dental-bot/api/internal/config"
	"dental-bot/api/internal/httpserver"
	"dental-bot/api/internal/inflight"
	"dental-bot/api/internal/logging"
	"dental-bot/api/internal/metrics"
	"dental-bot/api/internal/scan"
	"dental-bot/api/internal/telegram"
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

	if err := cfg.RequireTelegram(); err != nil {
		logger.Fatal("telegram is not configured", zap.Error(err))
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engines, closeEngines, err := app.Engines(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("engines", zap.Error(err))
	}
	defer closeEngines()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("telegram login failed", zap.Error(err))
	}
	logger.Info("authorized on telegram", zap.String("bot", bot.Self.UserName))

	r := &telegram.Router{
		Bot:         bot,
		EngManager:  engines,
		Scanner:     scan.NewPipeline(logger, cfg.MaxDimension),
		Guard:       inflight.New(),
		Logger:      logger.Named("telegram"),
		ScanTimeout: cfg.ScanTimeout,
	}

	opts := httpserver.Options{Logger: logger.Named("http"), Health: "ok"}
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL != "" {
		path := "/webhook/" + shortHash(cfg.TelegramBotToken)
		if err := registerWebhook(bot, strings.TrimRight(webhookURL, "/")+path); err != nil {
			logger.Fatal("set webhook failed", zap.Error(err))
		}
		opts.WebhookPath = path
		opts.Webhook = webhookHandler(bot, r, logger)
		logger.Info("webhook mode", zap.String("path", path))
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook failed", zap.Error(err))
		}
		go runPolling(ctx, bot, r.HandleUpdate, logger.Named("polling"))
		logger.Info("polling mode")
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           httpserver.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("http listening", zap.String("addr", server.Addr))
	if err := httpserver.Serve(server, 15*time.Second, logger, nil, nil); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func registerWebhook(bot *tgbotapi.BotAPI, public string) error {
	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	_, err = bot.Request(wh)
	return err
}

func webhookHandler(bot *tgbotapi.BotAPI, r *telegram.Router, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		upd, err := bot.HandleUpdate(c.Request)
		if err != nil {
			logger.Warn("bad webhook update", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		r.HandleUpdate(*upd)
		c.Status(http.StatusOK)
	}
}
