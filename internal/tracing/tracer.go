// Package tracing provides OpenTelemetry span instrumentation for the
// transaction commit core.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages OpenTelemetry tracing
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Config holds configuration for tracing
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(cfg Config) (*TracerProvider, error) {
	// Create stdout exporter for development/testing
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %v", err)
	}

	// Create resource with service information
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %v", err)
	}

	// Create trace provider
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set as global trace provider
	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
	}, nil
}

// StartSpan starts a new span with the given name and attributes
func (tp *TracerProvider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
}

// AddEvent adds an event to the current span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name,
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
}

// SpanFromContext retrieves the current span from context
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// TraceID returns the trace ID from the span in context
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	return span.SpanContext().TraceID().String()
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Common span names for the commit pipeline.
const (
	SpanHold            = "txncore.hold"
	SpanRelease         = "txncore.release"
	SpanSync            = "txncore.sync"
	SpanCommitPipeline  = "txncore.commit"
	SpanWritebackStart  = "txncore.commit.writeback_start"
	SpanAllocSegno      = "txncore.commit.alloc_segno"
	SpanNewSegment      = "txncore.commit.new_segment"
	SpanDrainInto       = "txncore.commit.drain_into"
	SpanSubmitSegment   = "txncore.commit.submit_segment"
	SpanWaitCompletion  = "txncore.commit.wait_completion"
	SpanRecordSegment   = "txncore.commit.record_segment"
	SpanAdvanceSeq      = "txncore.commit.advance_seq"
)

// Common attribute keys.
const (
	AttributeActorID    = attribute.Key("txncore.actor.id")
	AttributeSegno      = attribute.Key("txncore.segno")
	AttributeWriteCount = attribute.Key("txncore.write_count")
	AttributeStatus     = attribute.Key("txncore.status")
	AttributeError      = attribute.Key("txncore.error")
)
