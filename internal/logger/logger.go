package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// level is shared by every Logger so SetLevel applies process-wide.
var level = new(slog.LevelVar)

var (
	emailRegex  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	tokenRegex  = regexp.MustCompile(`eyJ[^\s"]+`)
	userIDRegex = regexp.MustCompile(`\buser_id\s*=\s*\d+\b`)
)

// Logger is a centralized structured logger. Every entry carries the module
// that produced it.
type Logger struct {
	out *slog.Logger
}

// New creates a new Logger writing JSON lines to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a Logger writing JSON lines to w.
func NewWithWriter(w io.Writer) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{out: slog.New(h)}
}

// SetLevel sets the minimum level for all loggers. Unknown names mean info.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// Anonymize replaces sensitive information in logs (emails, tokens, IDs)
func Anonymize(s string) string {
	s = emailRegex.ReplaceAllString(s, "[REDACTED_EMAIL]")
	s = tokenRegex.ReplaceAllString(s, "[REDACTED_TOKEN]")
	s = userIDRegex.ReplaceAllString(s, "user_id=[USER_ID]")
	return s
}

func (l *Logger) log(module string, lvl slog.Level, msg string, err error, attrs []slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+2)
	all = append(all, slog.String("module", module))
	if err != nil {
		all = append(all, slog.String("error", Anonymize(err.Error())))
	}
	all = append(all, attrs...)
	l.out.LogAttrs(context.Background(), lvl, Anonymize(msg), all...)
}

// --- Convenient methods ---
func (l *Logger) Info(module, msg string, attrs ...slog.Attr) {
	l.log(module, slog.LevelInfo, msg, nil, attrs)
}

func (l *Logger) Debug(module, msg string, attrs ...slog.Attr) {
	l.log(module, slog.LevelDebug, msg, nil, attrs)
}

func (l *Logger) Warn(module, msg string, attrs ...slog.Attr) {
	l.log(module, slog.LevelWarn, msg, nil, attrs)
}

func (l *Logger) Error(module, msg string, err error, attrs ...slog.Attr) {
	l.log(module, slog.LevelError, msg, err, attrs)
}
