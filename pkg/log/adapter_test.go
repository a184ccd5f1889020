package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StayBridge/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKratosAdapter(t *testing.T) {
	cfg := &conf.Log{
		Level:  "info",
		Format: "json",
		Env:    "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)
	require.NotNil(t, adapter)

	var _ log.Logger = adapter
}

func TestKratosAdapter_Log_EmptyKeyvals(t *testing.T) {
	cfg := &conf.Log{
		Level:  "info",
		Format: "json",
		Env:    "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)

	err = adapter.Log(log.LevelInfo)
	assert.NoError(t, err)
}

func TestKratosAdapter_LogLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
	}{
		{"debug level", log.LevelDebug},
		{"info level", log.LevelInfo},
		{"warn level", log.LevelWarn},
		{"error level", log.LevelError},
		// Fatal not tested as it calls os.Exit
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			logFile := filepath.Join(tempDir, "adapter_test.log")

			cfg := &conf.Log{
				Level:      "debug",
				Format:     "json",
				OutputFile: logFile,
				Env:        "production",
			}

			zapLog, err := NewZapLogger(cfg)
			require.NoError(t, err)

			adapter := NewKratosAdapter(zapLog)

			err = adapter.Log(tt.level, "msg", "test message", "component", "queue")
			assert.NoError(t, err)

			zapLog.Sync()

			data, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Contains(t, string(data), "test message")
		})
	}
}

func TestKratosAdapter_SanitizesStringValues(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "sanitize_test.log")

	cfg := &conf.Log{
		Level:      "info",
		Format:     "json",
		OutputFile: logFile,
		Env:        "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)

	err = adapter.Log(log.LevelInfo,
		"msg", "sending message",
		"recipient", "+14155550123",
		"gateway_token", "supersecrettoken123",
	)
	require.NoError(t, err)
	zapLog.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	output := string(data)

	assert.NotContains(t, output, "+14155550123")
	assert.NotContains(t, output, "supersecrettoken123")
	assert.Contains(t, output, "recipient")
}

func TestKratosAdapter_NonStringValues(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "nonstring_test.log")

	cfg := &conf.Log{
		Level:      "info",
		Format:     "json",
		OutputFile: logFile,
		Env:        "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)

	err = adapter.Log(log.LevelInfo,
		"msg", "dispatch summary",
		"sent", 8,
		"deferred", 2,
		"success", true,
	)
	require.NoError(t, err)
	zapLog.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	output := string(data)

	assert.Contains(t, output, `"sent":8`)
	assert.Contains(t, output, `"success":true`)
}

func TestKratosAdapter_OddKeyvals(t *testing.T) {
	cfg := &conf.Log{
		Level:  "info",
		Format: "json",
		Env:    "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)

	// Trailing key without a value is dropped, not an error
	err = adapter.Log(log.LevelInfo, "msg", "ok", "dangling")
	assert.NoError(t, err)
}

func TestKratosAdapter_NonStringKeys(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "keys_test.log")

	cfg := &conf.Log{
		Level:      "info",
		Format:     "json",
		OutputFile: logFile,
		Env:        "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	adapter := NewKratosAdapter(zapLog)

	err = adapter.Log(log.LevelInfo, 42, "answer")
	require.NoError(t, err)
	zapLog.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "42"))
}
