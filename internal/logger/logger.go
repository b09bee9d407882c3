package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "maichez-backend"

var (
	globalLogger   = slog.Default()
	tracingEnabled bool
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level          string // DEBUG, INFO, WARN, ERROR
	Format         string // json or text
	TracingEnabled bool
	ServiceVersion string
}

// Init installs the global logger and, when enabled, an OpenTelemetry tracer
// exporting to stdout.
func Init(cfg LogConfig) error {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	tracingEnabled = cfg.TracingEnabled
	if tracingEnabled {
		if err := initTracer(cfg.ServiceVersion); err != nil {
			globalLogger.Warn("Failed to initialize OpenTelemetry tracer, tracing disabled", "error", err)
			tracingEnabled = false
		}
	}
	return nil
}

func initTracer(version string) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	if version == "" {
		version = "dev"
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(serviceName)
	return nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartSpan starts a span, or returns the current one when tracing is off.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !tracingEnabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func traceAttrs(ctx context.Context) []any {
	if !tracingEnabled {
		return nil
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []any{"trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String()}
}

func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ta := traceAttrs(ctx); ta != nil {
		args = append(ta, args...)
	}
	globalLogger.Log(ctx, level, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelDebug, msg, args...) }
func Info(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelInfo, msg, args...) }
func Warn(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelWarn, msg, args...) }
func Error(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelError, msg, args...) }

// ErrorWithErr logs err and marks the current span as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	if tracingEnabled {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	log(ctx, slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

// Verdict logs a classified validator reply and adds it to the span.
func Verdict(ctx context.Context, sessionID, pair, result string, fields ...any) {
	if tracingEnabled {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.AddEvent("trade_verdict", trace.WithAttributes(
				attribute.String("session_id", sessionID),
				attribute.String("pair", pair),
				attribute.String("result", result),
			))
		}
	}
	log(ctx, slog.LevelInfo, "Trade verdict",
		append([]any{"type", "VERDICT", "session_id", sessionID, "pair", pair, "result", result}, fields...)...)
}

func IsTracingEnabled() bool {
	return tracingEnabled
}
