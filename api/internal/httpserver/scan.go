package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dental-bot/api/internal/dental"
	"dental-bot/api/internal/inflight"
	"dental-bot/api/internal/llm"
	"dental-bot/api/internal/metrics"
)

// Scanner runs one scan; *scan.Pipeline implements it.
type Scanner interface {
	Run(ctx context.Context, engine llm.Engine, image []byte) (dental.Analysis, error)
}

// ScanHandler serves POST /v1/scan: a multipart "image" field in, a report out.
// Callers are keyed by the X-Client-ID header, or by IP without it; one scan
// per key runs at a time.
type ScanHandler struct {
	Engines        *llm.Manager
	Scanner        Scanner
	Guard          *inflight.Guard
	Logger         *zap.Logger
	Timeout        time.Duration
	MaxUploadBytes int64
}

type scanResponse struct {
	ScanID      string        `json:"scan_id"`
	Engine      string        `json:"engine"`
	Model       string        `json:"model"`
	CompletedAt time.Time     `json:"completed_at"`
	Report      dental.Report `json:"report"`
}

func (h *ScanHandler) Handle(c *gin.Context) {
	engine := h.Engines.Default()
	if name := c.Query("engine"); name != "" {
		e, err := h.Engines.Lookup(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		engine = e
	}

	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	file, err := c.FormFile("image")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	key := clientKey(c)
	if !h.Guard.TryAcquire(key) {
		metrics.RejectedBusyTotal.WithLabelValues("http").Inc()
		h.logger().Info("scan rejected, client busy", zap.String("client", key))
		c.JSON(http.StatusConflict, gin.H{"error": "a scan is already in progress for this client"})
		return
	}
	defer h.Guard.Release(key)

	ctx := c.Request.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	a, err := h.Scanner.Run(ctx, engine, data)
	if err != nil {
		status, code := StatusFor(err)
		h.logger().Debug("scan request failed", zap.String("client", key), zap.Int("status", status), zap.String("code", code))
		body := gin.H{"error": code, "message": err.Error()}
		var de *dental.DecodeError
		if errors.As(err, &de) && de.Field != "" {
			body["field"] = de.Field
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, scanResponse{
		ScanID:      a.ScanID,
		Engine:      a.Engine,
		Model:       a.Model,
		CompletedAt: a.CompletedAt,
		Report:      a.Report,
	})
}

func (h *ScanHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func clientKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Client-ID")); id != "" {
		return "client:" + id
	}
	return "ip:" + c.ClientIP()
}

// StatusFor maps a scan error to an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	var (
		ie *dental.ImageError
		se *dental.StreamError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	case errors.As(err, &ie):
		return http.StatusBadRequest, "invalid_image"
	case errors.As(err, &se):
		return http.StatusBadGateway, "stream_error"
	}
	switch dental.KindOf(err) {
	case dental.NoSubjectDetected:
		return http.StatusUnprocessableEntity, "no_teeth_found"
	case dental.NoJSONFound:
		return http.StatusBadGateway, "no_json_found"
	case dental.SchemaMismatch:
		return http.StatusBadGateway, "schema_mismatch"
	}
	return http.StatusInternalServerError, "internal"
}
