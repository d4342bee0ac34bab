package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// TracingOptions selects the tracer provider setup.
type TracingOptions struct {
	Enabled     bool
	Exporter    string // "stdout" or "none"
	ServiceName string
	Output      io.Writer
}

// InitTracing installs a global tracer provider and the W3C propagators.
// The returned function flushes and stops the provider. When tracing is
// disabled only the propagators are installed and shutdown is a no-op.
func InitTracing(opts TracingOptions, log *zap.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	serviceName := strings.TrimSpace(opts.ServiceName)
	if serviceName == "" {
		serviceName = "practice-registry"
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch strings.ToLower(opts.Exporter) {
	case "", "none":
	case "stdout":
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)
	log.Info("tracing initialized", zap.String("service", serviceName), zap.String("exporter", opts.Exporter))
	return tp.Shutdown, nil
}
