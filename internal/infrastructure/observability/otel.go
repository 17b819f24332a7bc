package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/medanalyzer"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	AnalysisCount   metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics and runtime instrumentation
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		GetLogger().Warn().Err(err).Msg("runtime metrics unavailable")
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	analysisCount, err := meter.Int64Counter(
		"analysis.count",
		metric.WithDescription("Number of finished analyses by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		AnalysisCount:   analysisCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordAnalysis records a finished analysis
func RecordAnalysis(ctx context.Context, metrics *Metrics, outcome, errorType string) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("analysis.outcome", outcome),
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String("analysis.error_type", errorType))
	}
	metrics.AnalysisCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

type upstreamInstruments struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var (
	upstreamOnce    sync.Once
	upstreamMetrics *upstreamInstruments
)

func ensureUpstreamMetrics() *upstreamInstruments {
	upstreamOnce.Do(func() {
		meter := otel.Meter(instrumentationName + "/upstream")

		count, err := meter.Int64Counter(
			"upstream.request.count",
			metric.WithDescription("Number of outbound API requests"),
		)
		if err != nil {
			return
		}
		duration, err := meter.Float64Histogram(
			"upstream.request.duration",
			metric.WithDescription("Outbound API request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		errs, err := meter.Int64Counter(
			"upstream.request.errors",
			metric.WithDescription("Number of failed outbound API requests"),
		)
		if err != nil {
			return
		}
		upstreamMetrics = &upstreamInstruments{count: count, duration: duration, errors: errs}
	})
	return upstreamMetrics
}

// RecordUpstreamCall records one call to an external API
func RecordUpstreamCall(ctx context.Context, service, model string, statusCode int, duration time.Duration, err error) {
	m := ensureUpstreamMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("upstream.service", service),
	}
	if model != "" {
		attrs = append(attrs, attribute.String("upstream.model", model))
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.count.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
