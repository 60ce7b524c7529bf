// Package telemetry wires OpenTelemetry tracing and metrics for taskdrop.
//
// Telemetry is off unless Init is called with Options.Enabled. When off, the
// global providers are no-ops and WrapTracker returns trackers unchanged.
//
// Exporters:
//
//   - stdout: pretty-printed spans and periodic metric dumps (otel.stdout)
//   - OTLP/gRPC: any collector such as Jaeger, Tempo or Honeycomb (otel.endpoint)
//
// Enabling telemetry with neither exporter configured falls back to stdout.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/taskdrop/taskdrop"

const (
	stdoutMetricInterval = 15 * time.Second
	otlpMetricInterval   = 30 * time.Second
)

// Options selects the exporters Init installs.
type Options struct {
	Enabled     bool
	Stdout      bool
	Endpoint    string // OTLP gRPC host:port; empty disables OTLP export
	ServiceName string
	Version     string
}

var (
	enabled atomic.Bool

	mu          sync.Mutex
	shutdownFns []func(context.Context) error
)

// Enabled reports whether the last Init installed real providers.
func Enabled() bool {
	return enabled.Load()
}

// Init installs the global tracer and meter providers described by opts.
// With opts.Enabled false it installs no-op providers.
func Init(ctx context.Context, opts Options) error {
	if !opts.Enabled {
		enabled.Store(false)
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "taskdrop"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.Version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	// Without an OTLP endpoint, stdout is the only place data can go.
	stdout := opts.Stdout || opts.Endpoint == ""

	tp, err := newTracerProvider(ctx, res, stdout, opts.Endpoint)
	if err != nil {
		return fmt.Errorf("telemetry: trace provider: %w", err)
	}
	mp, err := newMeterProvider(ctx, res, stdout, opts.Endpoint)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: metric provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	mu.Lock()
	shutdownFns = append(shutdownFns, tp.Shutdown, mp.Shutdown)
	mu.Unlock()
	enabled.Store(true)
	return nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, stdout bool, endpoint string) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if stdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	if endpoint != "" {
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, stdout bool, endpoint string) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if stdout {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(stdoutMetricInterval)),
		))
	}
	if endpoint != "" {
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(otlpMetricInterval)),
		))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

// Tracer returns a tracer for the named instrumentation scope.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter for the named instrumentation scope.
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes pending spans and metrics and stops the providers
// installed by Init. It is safe to call when telemetry is off.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	fns := shutdownFns
	shutdownFns = nil
	mu.Unlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	enabled.Store(false)
	return errors.Join(errs...)
}
