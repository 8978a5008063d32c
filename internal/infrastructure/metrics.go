package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// MeterName is the instrumentation scope for all application metrics
	MeterName = "strucplot"
	// ServiceVersion is reported on the metrics resource
	ServiceVersion = "1.0.0"
)

// MetricsProviders holds the metrics pipeline and its instruments
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger

	renderCount    metric.Int64Counter
	renderDuration metric.Float64Histogram
	exportCount    metric.Int64Counter
	uploadCount    metric.Int64Counter
}

// InitializeMetrics sets up the OpenTelemetry metrics pipeline backed by a
// Prometheus exporter and registers the application instruments.
func InitializeMetrics(ctx context.Context, logger *slog.Logger) (*MetricsProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(MeterName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers := &MetricsProviders{
		MeterProvider:  mp,
		Meter:          mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion)),
		PrometheusHTTP: promhttp.Handler(),
		Logger:         logger,
	}

	if err := providers.createInstruments(); err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	logger.InfoContext(ctx, "Metrics initialization complete",
		slog.String("exporter", "prometheus"))

	return providers, nil
}

func (p *MetricsProviders) createInstruments() error {
	var err error

	p.renderCount, err = p.Meter.Int64Counter("charts_rendered_total",
		metric.WithDescription("Total chart figures rendered"),
		metric.WithUnit("{chart}"))
	if err != nil {
		return err
	}

	p.renderDuration, err = p.Meter.Float64Histogram("chart_render_duration_seconds",
		metric.WithDescription("Wall time spent rendering a chart figure"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	p.exportCount, err = p.Meter.Int64Counter("chart_exports_total",
		metric.WithDescription("Total chart export jobs completed"),
		metric.WithUnit("{export}"))
	if err != nil {
		return err
	}

	p.uploadCount, err = p.Meter.Int64Counter("workbook_uploads_total",
		metric.WithDescription("Total workbook uploads accepted"),
		metric.WithUnit("{upload}"))
	if err != nil {
		return err
	}

	return nil
}

// RecordRender records one rendered figure and its duration
func (p *MetricsProviders) RecordRender(ctx context.Context, kind string, mode string, d time.Duration) {
	if p == nil || p.renderCount == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("mode", mode),
	)
	p.renderCount.Add(ctx, 1, attrs)
	p.renderDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordExport records one completed export job
func (p *MetricsProviders) RecordExport(ctx context.Context, kind string, files int) {
	if p == nil || p.exportCount == nil {
		return
	}
	p.exportCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Int("files", files),
	))
}

// RecordUpload records one accepted workbook upload
func (p *MetricsProviders) RecordUpload(ctx context.Context) {
	if p == nil || p.uploadCount == nil {
		return
	}
	p.uploadCount.Add(ctx, 1)
}

// Shutdown gracefully shuts down the metrics pipeline
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}
