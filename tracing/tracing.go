// Package tracing configures the OpenTelemetry tracer provider the
// coordinator reports its session and round spans to.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options configures Setup.
type Options struct {
	Enabled bool
	// Exporter is "stdout" or "noop"; empty means noop.
	Exporter string
	// Output receives stdout exporter spans. Defaults to os.Stderr.
	Output io.Writer
	// PrettyPrint indents exported spans.
	PrettyPrint bool
}

// Setup initializes OpenTelemetry tracing and returns a shutdown function
// that flushes pending spans. When tracing is disabled a noop provider is
// installed.
func Setup(_ context.Context, optFns ...func(o *Options)) (func(context.Context) error, error) {
	opts := Options{Exporter: "stdout", Output: os.Stderr}

	for _, fn := range optFns {
		fn(&opts)
	}

	noopShutdown := func(context.Context) error { return nil }

	if !opts.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "stdout":
		exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(opts.Output)}
		if opts.PrettyPrint {
			exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
		}
		exp, err := stdouttrace.New(exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	case "noop", "":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", opts.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
