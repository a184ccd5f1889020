package log

import (
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// emojiMap maps a log record's "type" field to a marker emoji. Components
// tag their records through the LogHelper methods in helpers.go.
var emojiMap = map[string]string{
	"request":      "🌐",
	"pms":          "🏨",
	"gateway":      "📨",
	"queue":        "📬",
	"dispatch":     "📤",
	"breaker":      "🔌",
	"cache":        "📦",
	"rate_limit":   "🚦",
	"database":     "💾",
	"monitor":      "⏱️",
	"startup":      "🚀",
	"success":      "✅",
	"slow_request": "🐌",
	"housekeeping": "🧹",
}

// statusEmoji picks a marker from an HTTP status code.
func statusEmoji(status int) string {
	switch {
	case status >= 500:
		return "🔴"
	case status >= 400:
		return "🟠"
	case status >= 300:
		return "🟡"
	default:
		return "🟢"
	}
}

// EmojiConsoleEncoder wraps Zap's ConsoleEncoder and prefixes each message
// with an emoji derived from the record's "type" or "status" field. Used
// only for the development console format; JSON output is untouched.
type EmojiConsoleEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
}

// NewEmojiConsoleEncoder creates the console encoder with emoji markers.
func NewEmojiConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		config:  cfg,
	}
}

// EncodeEntry encodes the log entry, prefixing the message with a marker.
// Priority: HTTP status field, then type-field mapping, then log level.
func (enc *EmojiConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var logType string
	var status int64

	for _, field := range fields {
		if field.Key == "type" && field.Type == zapcore.StringType {
			logType = field.String
		} else if field.Key == "status" && (field.Type == zapcore.Int64Type || field.Type == zapcore.Int32Type) {
			status = field.Integer
		}
	}

	emoji := ""
	if status > 0 {
		emoji = statusEmoji(int(status))
	} else if logType != "" {
		emoji = emojiMap[logType]
	}

	if emoji == "" {
		switch entry.Level {
		case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
			emoji = "❌"
		case zapcore.WarnLevel:
			emoji = "⚠️"
		case zapcore.InfoLevel:
			emoji = "ℹ️"
		case zapcore.DebugLevel:
			emoji = "🐛"
		}
	}

	if emoji != "" {
		entry.Message = emoji + " " + entry.Message
	}

	return enc.Encoder.EncodeEntry(entry, fields)
}

// Clone clones the encoder (used internally by Zap).
func (enc *EmojiConsoleEncoder) Clone() zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: enc.Encoder.Clone(),
		config:  enc.config,
	}
}
