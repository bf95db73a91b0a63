package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the shared HTTP surface of both binaries.
type Options struct {
	Logger *zap.Logger

	// Health is the body of GET /healthz.
	Health string

	// Scan, when set, serves POST /v1/scan.
	Scan *ScanHandler

	// WebhookPath and Webhook mount the Telegram webhook receiver.
	WebhookPath string
	Webhook     gin.HandlerFunc
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger))

	health := opts.Health
	if health == "" {
		health = "ok"
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, health)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Scan != nil {
		if opts.Scan.MaxUploadBytes > 0 {
			r.MaxMultipartMemory = opts.Scan.MaxUploadBytes
		}
		r.POST("/v1/scan", opts.Scan.Handle)
	}
	if opts.Webhook != nil && opts.WebhookPath != "" {
		r.POST(opts.WebhookPath, opts.Webhook)
	}
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/metrics" || c.FullPath() == "/healthz" {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Serve runs server until it fails or a SIGINT/SIGTERM arrives, then shuts
// it down within shutdownTimeout. A nil listener means ListenAndServe.
func Serve(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
