package trace

import (
	"context"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "sentiment-trader"

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	sink     io.Closer
	enabled  bool
)

// Init installs a span exporter unless LOG_TRACING_ENABLED is "false".
//
//	TRACE_FILE          write spans to this file instead of stderr
//	TRACE_PRETTY        indent span JSON
//	TRACE_SAMPLE_RATIO  fraction of root spans kept, default 1
func Init(version string) error {
	enabled = getEnv("LOG_TRACING_ENABLED", "true") == "true"
	if !enabled {
		return nil
	}

	out, err := spanWriter()
	if err != nil {
		enabled = false
		return err
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if getEnv("TRACE_PRETTY", "false") == "true" {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		enabled = false
		return err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName), semconv.ServiceVersion(version)),
	)
	if err != nil {
		enabled = false
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
	)
	otel.SetTracerProvider(provider)
	tracer = otel.Tracer(serviceName)
	return nil
}

// spanWriter keeps spans off stdout, which carries command output.
func spanWriter() (io.Writer, error) {
	path := os.Getenv("TRACE_FILE")
	if path == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	sink = f
	return f, nil
}

func sampleRatio() float64 {
	r, err := strconv.ParseFloat(os.Getenv("TRACE_SAMPLE_RATIO"), 64)
	if err != nil || r < 0 || r > 1 {
		return 1
	}
	return r
}

// Shutdown flushes pending spans and closes the trace file, if any.
func Shutdown(ctx context.Context) error {
	var err error
	if provider != nil {
		err = provider.Shutdown(ctx)
		provider = nil
	}
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	enabled = false
	return err
}

// StartSpan is a no-op returning the parent span while tracing is disabled.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

func Enabled() bool {
	return enabled
}

// GetTraceFields returns the ids of the span active in ctx.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
