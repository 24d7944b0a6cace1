package o11y

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Bootstrap wires a process-wide TracerProvider and MeterProvider (spec
// SPEC_FULL's ambient-stack supplement): traces go to an OTLP/gRPC collector
// when SIMULFLOW_OTEL_ENDPOINT is set, otherwise to stdout; metrics go to a
// Prometheus exporter registered with the Prometheus client's default
// registerer. The returned shutdown func flushes and closes both providers.
func Bootstrap(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	var traceExporter sdktrace.SpanExporter
	if endpoint := os.Getenv("SIMULFLOW_OTEL_ENDPOINT"); endpoint != "" {
		traceExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	} else {
		traceExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("o11y: bootstrap trace exporter: %w", err)
	}

	tracerCleanup, err := InitTracer(serviceName, WithSpanExporter(traceExporter))
	if err != nil {
		return nil, fmt.Errorf("o11y: init tracer: %w", err)
	}

	promExporter, err := prometheus.New()
	if err != nil {
		tracerCleanup()
		return nil, fmt.Errorf("o11y: bootstrap prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter))
	otel.SetMeterProvider(meterProvider)

	if err := InitMeter(serviceName); err != nil {
		tracerCleanup()
		return nil, fmt.Errorf("o11y: init meter: %w", err)
	}

	return func(shutdownCtx context.Context) error {
		tracerCleanup()
		return meterProvider.Shutdown(shutdownCtx)
	}, nil
}
