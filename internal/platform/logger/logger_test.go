package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig_ToZapLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for level, want := range tests {
		cfg := &LoggerConfig{Level: level}
		assert.Equal(t, want, cfg.ToZapLevel(), level)
	}
}

func TestLoggerConfig_Normalize(t *testing.T) {
	cfg := &LoggerConfig{Level: " WARN ", Format: ""}
	cfg.normalize()
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.OutputFile)
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")

	log, err := New(&LoggerConfig{Level: "warn", Format: "json", OutputFile: path})
	require.NoError(t, err)

	log.Info("dropped below level")
	log.Named("photos").With(zap.String("listing_id", "L1")).Warn("upload failed")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "dropped below level")
	assert.Contains(t, out, `"msg":"upload failed"`)
	assert.Contains(t, out, `"listing_id":"L1"`)
	assert.Contains(t, out, `"logger":"photos"`)
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error("ignored", zap.Error(os.ErrNotExist))
	})
}
