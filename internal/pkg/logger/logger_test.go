package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			logger := NewLogger(env)
			require.NotNil(t, logger)
			logger.Info("test message")
		})
	}
}

func TestNewLogger_WithLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "warn")
	defer os.Unsetenv("LOG_LEVEL")

	logger := NewLogger("production")
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_WithInvalidLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "invalid_level")
	defer os.Unsetenv("LOG_LEVEL")

	// 無効なレベルは無視される
	logger := NewLogger("production")
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	original := Get()
	t.Cleanup(func() { Set(original) })
	Set(zap.New(core))
	return logs
}

func TestPackageFunctions(t *testing.T) {
	logs := observe(t)

	Debug("debug")
	Info("info", zap.String("hold_id", "h-1"))
	Warn("warn")
	Error("error", zap.Int("status", 503))

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "h-1", entries[1].ContextMap()["hold_id"])
	assert.Equal(t, int64(503), entries[3].ContextMap()["status"])
}

func TestComponent(t *testing.T) {
	logs := observe(t)

	Component("hold_expirer").Info("sweep done")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hold_expirer", logs.All()[0].ContextMap()["component"])
}

func TestWith(t *testing.T) {
	logs := observe(t)

	With(zap.String("rental_id", "R-20240610-000001")).Info("promoted")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "R-20240610-000001", logs.All()[0].ContextMap()["rental_id"])
}

func TestSync(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Sync()
	})
}
