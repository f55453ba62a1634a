package logger

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sentiment-trader/internal/trace"
)

var (
	// Global logger instance; a no-op until Init or SetLogger is called
	base = zap.NewNop()
	// Whether Debug messages are emitted
	detailedLogging bool
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or console
	DetailedLogging bool   // Enable Debug output
}

// Init initializes the global logger from environment variables
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

// InitWithConfig builds the global zap logger
func InitWithConfig(config LogConfig) error {
	level := parseLogLevel(config.Level)
	if config.DetailedLogging {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if strings.ToLower(config.Format) != "json" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stdout"}

	l, err := zc.Build()
	if err != nil {
		return err
	}
	base = l
	detailedLogging = config.DetailedLogging
	return nil
}

// SetLogger replaces the global logger. Debug output follows the core's level.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	detailedLogging = l.Core().Enabled(zapcore.DebugLevel)
}

// Sync flushes buffered log entries
func Sync() error {
	return base.Sync()
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Debug logs a debug message when detailed logging is enabled
func Debug(ctx context.Context, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, zapcore.DebugLevel, 0, msg, args...)
}

// DebugSkip is Debug reported against a caller skip frames further up the stack
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, zapcore.DebugLevel, skip, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, zapcore.InfoLevel, 0, msg, args...)
}

func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logWithTrace(ctx, zapcore.InfoLevel, skip, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, zapcore.WarnLevel, 0, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, zapcore.ErrorLevel, 0, msg, args...)
}

// ErrorWithErr logs an error message and records err on the active span
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	errorWithErr(ctx, 1, msg, err, args...)
}

func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	errorWithErr(ctx, skip+1, msg, err, args...)
}

func errorWithErr(ctx context.Context, skip int, msg string, err error, args ...any) {
	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	logWithTrace(ctx, zapcore.ErrorLevel, skip, msg, append([]any{"error", err}, args...)...)
}

// logWithTrace writes through the sugared logger, prefixing trace and span ids.
// skip counts frames above the exported helper that called it.
func logWithTrace(ctx context.Context, level zapcore.Level, skip int, msg string, args ...any) {
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}

	// logWithTrace -> exported helper -> caller
	s := base.WithOptions(zap.AddCallerSkip(2 + skip)).Sugar()
	switch level {
	case zapcore.DebugLevel:
		s.Debugw(msg, args...)
	case zapcore.WarnLevel:
		s.Warnw(msg, args...)
	case zapcore.ErrorLevel:
		s.Errorw(msg, args...)
	default:
		s.Infow(msg, args...)
	}
}

// Decision logs one per-bar trading instruction (always logged at info)
func Decision(ctx context.Context, symbol, action string, compound float64, reason string, fields ...any) {
	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent("trading_decision", oteltrace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.String("action", action),
			attribute.Float64("compound", compound),
			attribute.String("reason", reason),
		))
	}

	allFields := append([]any{
		"type", "DECISION",
		"symbol", symbol,
		"action", action,
		"compound", compound,
		"reason", reason,
	}, fields...)
	logWithTrace(ctx, zapcore.InfoLevel, 0, "Trading decision made", allFields...)
}

// Trade logs an order the broker accepted
func Trade(ctx context.Context, symbol, side string, qty int, price float64, orderID string, fields ...any) {
	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent("trade_executed", oteltrace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.String("side", side),
			attribute.Int("quantity", qty),
			attribute.Float64("price", price),
			attribute.String("order_id", orderID),
		))
	}

	allFields := append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"quantity", qty,
		"price", price,
		"order_id", orderID,
	}, fields...)
	logWithTrace(ctx, zapcore.InfoLevel, 0, "Trade executed", allFields...)
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return detailedLogging
}
