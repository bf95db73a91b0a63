package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dental-bot/api/internal/config"
	"dental-bot/api/internal/llm"
	"dental-bot/api/internal/llm/gemini"
	"dental-bot/api/internal/llm/openai"
)

// Engines builds every engine that has an API key and picks the configured
// default. The returned func releases client resources.
func Engines(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*llm.Manager, func(), error) {
	var (
		all     []llm.Engine
		closers []func() error
	)
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("engine close failed", zap.Error(err))
			}
		}
	}

	if cfg.GeminiAPIKey != "" {
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gemini: %w", err)
		}
		all = append(all, g)
		closers = append(closers, g.Close)
	}
	if cfg.OpenAIAPIKey != "" {
		o, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("openai: %w", err)
		}
		all = append(all, o)
	}

	var def llm.Engine
	for _, e := range all {
		if e.Name() == cfg.DefaultEngine {
			def = e
		}
	}
	if def == nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("default engine %q is not configured", cfg.DefaultEngine)
	}

	mgr := llm.NewManager(def, all...)
	for _, e := range all {
		logger.Info("engine ready",
			zap.String("engine", e.Name()),
			zap.String("model", e.GetModel()),
			zap.Bool("default", e == def),
		)
	}
	return mgr, cleanup, nil
}
