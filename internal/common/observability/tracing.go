// internal/common/observability/tracing.go
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	TraceExporterNone = "none"
	TraceExporterOTLP = "otlp"
)

// TracingOptions builds the options that ship spans to the selected exporter.
// With TraceExporterNone spans are still created but never leave the process.
func TracingOptions(ctx context.Context, exporter, endpoint string, insecure bool) ([]Option, error) {
	switch exporter {
	case "", TraceExporterNone:
		return nil, nil
	case TraceExporterOTLP:
		if endpoint == "" {
			return nil, fmt.Errorf("otlp trace exporter requires an endpoint")
		}
		clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
		return []Option{WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp))}, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}
}
