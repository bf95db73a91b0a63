package scan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dental-bot/api/internal/dental"
	"dental-bot/api/internal/imageprep"
	"dental-bot/api/internal/llm"
	"dental-bot/api/internal/logging"
	"dental-bot/api/internal/metrics"
)

// Pipeline runs one scan: prepare image, stream the model answer, decode it.
// It keeps no state between runs; every call returns its own Analysis.
type Pipeline struct {
	Normalizer   imageprep.Normalizer
	MaxDimension int
	Clock        Clock
	NewID        func() string

	logger *zap.Logger
}

func NewPipeline(logger *zap.Logger, maxDimension int) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDimension <= 0 {
		maxDimension = imageprep.DefaultMaxDimension
	}
	return &Pipeline{
		Normalizer:   imageprep.Resizer{},
		MaxDimension: maxDimension,
		Clock:        SystemClock{},
		NewID:        uuid.NewString,
		logger:       logger.Named("scan_pipeline"),
	}
}

// Run blocks until the report is decoded, the scan fails, or ctx is done.
// Errors are *dental.ImageError, *dental.StreamError, *dental.DecodeError
// or the context error.
func (p *Pipeline) Run(ctx context.Context, engine llm.Engine, image []byte) (dental.Analysis, error) {
	scanID := p.NewID()
	log := logging.WithOperation(p.logger, "scan.run", scanID).With(
		zap.String("engine", engine.Name()),
		zap.String("model", engine.GetModel()),
	)

	metrics.ScansInFlight.Inc()
	defer metrics.ScansInFlight.Dec()
	start := time.Now()

	a, err := p.run(ctx, log, engine, image)
	outcome := Outcome(err)
	metrics.ScansTotal.WithLabelValues(engine.Name(), outcome).Inc()
	metrics.ScanDurationSeconds.WithLabelValues(engine.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		fields := []zap.Field{zap.String("result", outcome), zap.Error(err)}
		var de *dental.DecodeError
		if errors.As(err, &de) && de.Field != "" {
			fields = append(fields, zap.String("field", de.Field))
		}
		if outcome == "no_teeth" || outcome == "canceled" {
			log.Info("scan finished without report", fields...)
		} else {
			log.Error("scan failed", fields...)
		}
		return dental.Analysis{}, err
	}

	a.ScanID = scanID
	log.Info("scan completed",
		zap.Int("overall_score", a.Report.OverallScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, engine llm.Engine, image []byte) (dental.Analysis, error) {
	prepared, err := imageprep.Prepare(image, p.MaxDimension, p.Normalizer)
	if err != nil {
		return dental.Analysis{}, &dental.ImageError{Op: "prepare", Err: err}
	}
	if prepared.Resized {
		log.Debug("image resized",
			zap.Int("width", prepared.Width),
			zap.Int("height", prepared.Height),
			zap.Int("orientation", prepared.Orientation),
		)
	}

	req := dental.BuildRequest(prepared.Data, prepared.MIME)
	st, err := engine.GenerateStream(ctx, req.Prompt, req.Image, req.MIME)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dental.Analysis{}, ctxErr
		}
		return dental.Analysis{}, &dental.StreamError{Engine: engine.Name(), Err: err}
	}

	raw, err := Collect(ctx, engine.Name(), st)
	if err != nil {
		return dental.Analysis{}, err
	}
	log.Debug("model response collected", zap.Int("response_len", len(raw)))

	dec := dental.Decoder{Logger: log, OnFallback: metrics.ExtractionFallbackTotal.Inc}
	report, err := dec.Decode(raw)
	if err != nil {
		return dental.Analysis{}, err
	}

	return dental.Analysis{
		Engine:      engine.Name(),
		Model:       engine.GetModel(),
		Report:      report,
		CompletedAt: p.Clock.Now(),
	}, nil
}

// Outcome names err for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		se *dental.StreamError
		ie *dental.ImageError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &ie):
		return "image_error"
	case errors.As(err, &se):
		return "stream_error"
	}
	switch dental.KindOf(err) {
	case dental.NoSubjectDetected:
		return "no_teeth"
	case dental.NoJSONFound:
		return "no_json"
	case dental.SchemaMismatch:
		return "schema_mismatch"
	}
	return "error"
}
