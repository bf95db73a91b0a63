package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dental-bot/api/internal/config"
)

func TestEnginesOpenAIOnly(t *testing.T) {
	cfg := &config.Config{OpenAIAPIKey: "o-key", OpenAIModel: "gpt-4o-mini", DefaultEngine: "gpt"}

	mgr, cleanup, err := Engines(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "gpt", mgr.Default().Name())
	assert.Equal(t, "gpt-4o-mini", mgr.Default().GetModel())
	assert.Equal(t, []string{"gpt"}, mgr.Names())
}

func TestEnginesDefaultMissing(t *testing.T) {
	cfg := &config.Config{OpenAIAPIKey: "o-key", OpenAIModel: "gpt-4o-mini", DefaultEngine: "gemini"}

	_, cleanup, err := Engines(context.Background(), cfg, zap.NewNop())
	defer cleanup()
	assert.Error(t, err)
}
