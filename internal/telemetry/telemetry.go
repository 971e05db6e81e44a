package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
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

const (
	instrumentationScopeConstant        = "github.com/temirov/clu"
	defaultServiceNameConstant          = "clu"
	metricExportIntervalConstant        = 15 * time.Second
	resourceErrorTemplateConstant       = "telemetry resource: %w"
	traceExporterErrorTemplateConstant  = "telemetry trace exporter: %w"
	metricExporterErrorTemplateConstant = "telemetry metric exporter: %w"
)

// Configuration selects whether spans and metrics are recorded and where they are written.
type Configuration struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// Writer receives exported spans and metrics. Defaults to standard error.
	Writer io.Writer
}

// Session owns the providers installed by Start.
type Session struct {
	shutdownFunctions []func(context.Context) error
}

// Start installs global tracer and meter providers. A disabled configuration installs no-op providers.
func Start(executionContext context.Context, configuration Configuration) (*Session, error) {
	session := &Session{}
	if !configuration.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return session, nil
	}

	serviceName := configuration.ServiceName
	if len(serviceName) == 0 {
		serviceName = defaultServiceNameConstant
	}
	writer := configuration.Writer
	if writer == nil {
		writer = os.Stderr
	}

	telemetryResource, resourceError := resource.New(executionContext,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(configuration.ServiceVersion),
		),
	)
	if resourceError != nil {
		return nil, fmt.Errorf(resourceErrorTemplateConstant, resourceError)
	}

	traceExporter, traceExporterError := stdouttrace.New(stdouttrace.WithWriter(writer))
	if traceExporterError != nil {
		return nil, fmt.Errorf(traceExporterErrorTemplateConstant, traceExporterError)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(telemetryResource),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	session.shutdownFunctions = append(session.shutdownFunctions, tracerProvider.Shutdown)

	metricExporter, metricExporterError := stdoutmetric.New(stdoutmetric.WithWriter(writer))
	if metricExporterError != nil {
		return nil, errors.Join(fmt.Errorf(metricExporterErrorTemplateConstant, metricExporterError), session.Shutdown(executionContext))
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(telemetryResource),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricExportIntervalConstant))),
	)
	otel.SetMeterProvider(meterProvider)
	session.shutdownFunctions = append(session.shutdownFunctions, meterProvider.Shutdown)

	return session, nil
}

// Shutdown flushes pending spans and metrics and releases the providers.
func (session *Session) Shutdown(executionContext context.Context) error {
	if session == nil {
		return nil
	}
	var shutdownErrors []error
	for _, shutdownFunction := range session.shutdownFunctions {
		shutdownErrors = append(shutdownErrors, shutdownFunction(executionContext))
	}
	session.shutdownFunctions = nil
	return errors.Join(shutdownErrors...)
}

// Tracer returns the tracer for campaign instrumentation.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationScopeConstant)
}

// Meter returns the meter for campaign instrumentation.
func Meter() metric.Meter {
	return otel.Meter(instrumentationScopeConstant)
}
