package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	LogLevel   string
	WebhookURL string

	TelegramBotToken string

	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	DefaultEngine string

	ScanTimeout    time.Duration
	MaxDimension   int
	MaxUploadBytes int64
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		WebhookURL: getEnv("WEBHOOK_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DefaultEngine: strings.ToLower(getEnv("DEFAULT_ENGINE", "gemini")),
	}

	var err error
	if cfg.ScanTimeout, err = time.ParseDuration(getEnv("SCAN_TIMEOUT", "90s")); err != nil {
		return nil, fmt.Errorf("SCAN_TIMEOUT: %w", err)
	}
	if cfg.MaxDimension, err = strconv.Atoi(getEnv("MAX_IMAGE_DIMENSION", "768")); err != nil || cfg.MaxDimension <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_DIMENSION must be a positive integer")
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64); err != nil || cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer")
	}

	if cfg.GeminiAPIKey == "" && cfg.OpenAIAPIKey == "" {
		return nil, errors.New("missing required env GEMINI_API_KEY (or OPENAI_API_KEY)")
	}
	switch cfg.DefaultEngine {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("DEFAULT_ENGINE=gemini needs GEMINI_API_KEY")
		}
	case "gpt", "openai":
		cfg.DefaultEngine = "gpt"
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("DEFAULT_ENGINE=gpt needs OPENAI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown DEFAULT_ENGINE %q", cfg.DefaultEngine)
	}
	return cfg, nil
}

// RequireTelegram is checked by the bot binary only.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return errors.New("missing required env TELEGRAM_BOT_TOKEN")
	}
	return nil
}
