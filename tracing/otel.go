package tracing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once    sync.Once
	initErr error
	tp      *sdktrace.TracerProvider
	mu      sync.Mutex
)

// InitTracer installs the global tracer provider exporting to the OTLP HTTP collector in the settings.
// Only the first call initialises, later calls return the first result.
func InitTracer(appSettings *settings.Settings, version, commit string) error {
	once.Do(func() {
		collector := appSettings.Tracing.CollectorURL
		if collector == nil || collector.Host == "" {
			initErr = errors.NewConfigurationError("tracing_collector_url is not set")
			return
		}

		exporterOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(collector.Host),
		}

		if collector.Path != "" && collector.Path != "/" {
			exporterOpts = append(exporterOpts, otlptracehttp.WithURLPath(collector.Path))
		}

		if !strings.EqualFold(collector.Scheme, "https") {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}

		var exporter *otlptrace.Exporter

		exporter, initErr = otlptracehttp.New(context.Background(), exporterOpts...)
		if initErr != nil {
			initErr = errors.NewProcessingError("failed to create OTLP exporter", initErr)
			return
		}

		var res *resource.Resource

		res, initErr = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceNameKey.String(appSettings.ClientName),
				semconv.ServiceVersionKey.String(version),
				attribute.String("commit", commit),
				attribute.String("network", appSettings.ChainCfgParams.Name),
			),
		)
		if initErr != nil {
			initErr = errors.NewProcessingError("failed to create resource", initErr)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(appSettings.Tracing.SampleRate))),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	})

	return initErr
}

// ShutdownTracer flushes and stops the tracer provider. Calling it again is a no-op.
func ShutdownTracer(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if tp == nil {
		return nil
	}

	if err := tp.ForceFlush(ctx); err != nil && !strings.Contains(err.Error(), "connection refused") {
		return errors.NewProcessingError("failed to flush spans", err)
	}

	if err := tp.Shutdown(ctx); err != nil {
		return errors.NewProcessingError("failed to shutdown tracer", err)
	}

	tp = nil

	return nil
}
