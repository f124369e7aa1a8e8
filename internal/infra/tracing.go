package infra

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitTelemetry installs the global tracer and meter providers. Spans are exported to w
// when tracing is enabled; metrics always go to the given meter provider so the
// /v1/metrics endpoint can read them. The returned func flushes and stops both.
func InitTelemetry(enabled bool, w io.Writer, meters *metric.MeterProvider) (func(context.Context) error, error) {
	if meters != nil {
		otel.SetMeterProvider(meters)
	}
	if !enabled {
		return func(ctx context.Context) error {
			if meters == nil {
				return nil
			}
			return meters.Shutdown(ctx)
		}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if meters != nil {
			if merr := meters.Shutdown(ctx); err == nil {
				err = merr
			}
		}
		return err
	}, nil
}
