package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"auto-ria-clone/internal/core/config"
)

func TestFromConfig_WritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, cleanup := FromConfig(config.Log{Level: "info", JSON: true, File: file, MaxSizeMB: 1}, config.App{Name: "auto-ria", Env: "test"})
	l.Info("listing created")
	l.Debug("dropped below level")
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"listing created"`)
	assert.Contains(t, string(b), `"env":"test"`)
	assert.NotContains(t, string(b), "dropped below level")
}

func TestBuildLogger_BadLevelFallsBackToInfo(t *testing.T) {
	l, cleanup := New("loud", true)
	defer cleanup()
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestToWriter_TrimsNewlines(t *testing.T) {
	l, cleanup := New("debug", true)
	defer cleanup()
	n, err := ToWriter(l, zapcore.DebugLevel).Write([]byte("[GIN-debug] GET /health\n"))
	require.NoError(t, err)
	assert.Equal(t, 24, n)
}
