package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ossim/ossim/cmd"

var otelTraceDest string // Span export destination: a file path, "-" for stdout, empty to disable

// initTracing installs a global tracer provider exporting spans as JSON to dest
// ("-" is stdout). The returned function flushes the provider and closes the file.
func initTracing(ctx context.Context, dest string) (func(context.Context) error, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", "ossim"),
		),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			err = errors.Join(err, closer.Close())
		}
		return err
	}, nil
}

// startTracing enables span export when --otel-trace is set. The returned
// function is always safe to defer.
func startTracing(ctx context.Context) func() {
	if otelTraceDest == "" {
		return func() {}
	}
	shutdown, err := initTracing(ctx, otelTraceDest)
	if err != nil {
		logrus.Fatalf("Failed to initialise tracing: %v", err)
	}
	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logrus.Errorf("Failed to flush spans: %v", err)
		}
	}
}

// startSpan opens a span on the global provider; it is a no-op until initTracing runs.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err, if any, as the span status and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
