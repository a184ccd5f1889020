package log

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestStatusEmoji(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{
			name:   "2xx success",
			status: 200,
			want:   "🟢",
		},
		{
			name:   "3xx redirect",
			status: 301,
			want:   "🟡",
		},
		{
			name:   "4xx client error",
			status: 404,
			want:   "🟠",
		},
		{
			name:   "5xx server error",
			status: 500,
			want:   "🔴",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusEmoji(tt.status)
			if got != tt.want {
				t.Errorf("statusEmoji(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestEmojiMap(t *testing.T) {
	requiredTypes := []string{
		"request",
		"pms",
		"gateway",
		"queue",
		"dispatch",
		"breaker",
		"cache",
		"rate_limit",
		"database",
		"success",
		"slow_request",
		"startup",
	}

	for _, logType := range requiredTypes {
		t.Run(logType, func(t *testing.T) {
			if _, ok := emojiMap[logType]; !ok {
				t.Errorf("emojiMap missing entry for type %q", logType)
			}
		})
	}
}

func newTestEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		TimeKey:     "time",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}
}

func TestEmojiConsoleEncoder_TypeField(t *testing.T) {
	enc := NewEmojiConsoleEncoder(newTestEncoderConfig())

	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Message: "availability fetched",
	}
	fields := []zapcore.Field{
		{Key: "type", Type: zapcore.StringType, String: "pms"},
	}

	buf, err := enc.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("EncodeEntry failed: %v", err)
	}
	defer buf.Free()

	if !strings.Contains(buf.String(), "🏨") {
		t.Errorf("expected pms emoji in output, got %q", buf.String())
	}
}

func TestEmojiConsoleEncoder_StatusPriority(t *testing.T) {
	enc := NewEmojiConsoleEncoder(newTestEncoderConfig())

	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Message: "request completed",
	}
	// status takes priority over type
	fields := []zapcore.Field{
		{Key: "type", Type: zapcore.StringType, String: "request"},
		{Key: "status", Type: zapcore.Int64Type, Integer: 503},
	}

	buf, err := enc.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("EncodeEntry failed: %v", err)
	}
	defer buf.Free()

	if !strings.Contains(buf.String(), "🔴") {
		t.Errorf("expected status emoji in output, got %q", buf.String())
	}
}

func TestEmojiConsoleEncoder_LevelFallback(t *testing.T) {
	enc := NewEmojiConsoleEncoder(newTestEncoderConfig())

	tests := []struct {
		name  string
		level zapcore.Level
		want  string
	}{
		{"error level", zapcore.ErrorLevel, "❌"},
		{"warn level", zapcore.WarnLevel, "⚠️"},
		{"info level", zapcore.InfoLevel, "ℹ️"},
		{"debug level", zapcore.DebugLevel, "🐛"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := zapcore.Entry{
				Level:   tt.level,
				Message: "plain message",
			}

			buf, err := enc.EncodeEntry(entry, nil)
			if err != nil {
				t.Fatalf("EncodeEntry failed: %v", err)
			}
			defer buf.Free()

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %s for %s, got %q", tt.want, tt.level, buf.String())
			}
		})
	}
}

func TestEmojiConsoleEncoder_Clone(t *testing.T) {
	enc := NewEmojiConsoleEncoder(newTestEncoderConfig())

	clone := enc.Clone()
	if clone == nil {
		t.Fatal("Clone returned nil")
	}
	if _, ok := clone.(*EmojiConsoleEncoder); !ok {
		t.Errorf("Clone returned %T, want *EmojiConsoleEncoder", clone)
	}
}
