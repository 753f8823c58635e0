// Package observability wires OpenTelemetry tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

// InitTracing installs a global tracer provider exporting to out (stdout when
// nil). When tracing is disabled it returns a no-op shutdown and leaves the
// default no-op provider in place.
func InitTracing(ctx context.Context, cfg common.TracingConfig, out io.Writer, logger *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "assignment-verifier"
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
	))
	if err != nil {
		logger.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []stdouttrace.Option{}
	if out != nil {
		opts = append(opts, stdouttrace.WithWriter(out))
	}
	exp, err := stdouttrace.New(opts...)
	if err != nil {
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("otel tracing initialized", "service", name)
	return tp.Shutdown, nil
}
