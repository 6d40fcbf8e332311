// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package opentelemetry

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace" // name this differently so it doesn't conflict with the tracer interface
	"go.opentelemetry.io/otel/trace"
)

const DefaultTracingEndpoint = "127.0.0.1:4317"

const ServiceName = "databus"

// the global tracer; nil unless tracing was enabled on the command line
var Tracer trace.Tracer
var TracerProvider *sdktrace.TracerProvider

// NewRootSpan starts a new trace while keeping ctx's deadline and values.
// Used once per subcommand so every request of a run shares a trace
func NewRootSpan(ctx context.Context, name string) (trace.Span, context.Context) {
	if Tracer == nil {
		return trace.SpanFromContext(context.Background()), ctx
	}
	ctx, span := Tracer.Start(ctx, name, trace.WithNewRoot())
	return span, ctx
}

// SubSpanFromCtxWithName starts a child span of whatever span ctx holds.
// Without a tracer a no-op span is returned and ctx is passed through
func SubSpanFromCtxWithName(ctx context.Context, name string) (trace.Span, context.Context) {
	if Tracer == nil {
		return trace.SpanFromContext(context.Background()), ctx
	}
	ctx, span := Tracer.Start(ctx, name)
	return span, ctx
}

// Drops spans for requests testcontainers makes to the docker daemon
// so integration test traces only show databus traffic
type filteringSpanProcessor struct {
	next sdktrace.SpanProcessor
}

func (f *filteringSpanProcessor) OnStart(parent context.Context, span sdktrace.ReadWriteSpan) {
	f.next.OnStart(parent, span)
}

func (f *filteringSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if isContainerRuntimeSpan(span) {
		return
	}
	f.next.OnEnd(span)
}

func (f *filteringSpanProcessor) Shutdown(ctx context.Context) error {
	return f.next.Shutdown(ctx)
}

func (f *filteringSpanProcessor) ForceFlush(ctx context.Context) error {
	return f.next.ForceFlush(ctx)
}

func isContainerRuntimeSpan(span sdktrace.ReadOnlySpan) bool {
	for _, attr := range span.Attributes() {
		switch attr.Key {
		case "http.url", "url.full":
			if strings.Contains(attr.Value.AsString(), "/containers/") {
				return true
			}
		case "user_agent.original":
			if strings.Contains(attr.Value.AsString(), "tc-go") {
				return true
			}
		}
	}
	return false
}

// InitTracer exports spans over otlp grpc to the given endpoint
// and installs the provider globally so otelhttp picks it up
func InitTracer(ctx context.Context, endpoint string) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", ServiceName)),
	)
	if err != nil {
		return fmt.Errorf("failed to describe otel resource: %w", err)
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return fmt.Errorf("failed to create otlp exporter for %s: %w", endpoint, err)
	}

	TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&filteringSpanProcessor{next: sdktrace.NewBatchSpanProcessor(exporter)}),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(TracerProvider)
	Tracer = TracerProvider.Tracer(ServiceName)

	log.Infof("OpenTelemetry tracing enabled, sending spans to %s", endpoint)
	return nil
}
