// Package telemetry installs the process-wide OpenTelemetry tracer provider
// used by the otelhttp server and client instrumentation.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	// ExporterOTLP sends spans over OTLP/HTTP. The endpoint comes from the
	// standard OTEL_EXPORTER_OTLP_* variables.
	ExporterOTLP = "otlp"
)

var ErrUnknownExporter = errors.New("unknown trace exporter")

// Shutdown flushes pending spans and stops the provider.
type Shutdown func(context.Context) error

type Options struct {
	ServiceName string
	Exporter    string
	// Writer receives stdout spans. Defaults to os.Stdout.
	Writer io.Writer
}

// Setup installs a tracer provider for opts.Exporter. With no exporter the
// global no-op provider stays in place and Shutdown does nothing.
func Setup(ctx context.Context, opts Options) (Shutdown, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch strings.ToLower(strings.TrimSpace(opts.Exporter)) {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}

		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case ExporterOTLP:
		exporter, err = otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, opts.Exporter)
	}

	if err != nil {
		return nil, fmt.Errorf("creating %s trace exporter: %w", opts.Exporter, err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
		)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
