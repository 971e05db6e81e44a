package telemetry_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/telemetry"
)

const testSpanNameConstant = "clone"

func TestStartDisabledInstallsNoopProviders(testInstance *testing.T) {
	var output bytes.Buffer
	session, startError := telemetry.Start(context.Background(), telemetry.Configuration{Writer: &output})
	require.NoError(testInstance, startError)

	_, span := telemetry.Tracer().Start(context.Background(), testSpanNameConstant)
	span.End()

	require.False(testInstance, span.SpanContext().IsValid())
	require.NoError(testInstance, session.Shutdown(context.Background()))
	require.Empty(testInstance, output.String())
}

func TestStartEnabledExportsSpansOnShutdown(testInstance *testing.T) {
	var output bytes.Buffer
	session, startError := telemetry.Start(context.Background(), telemetry.Configuration{Enabled: true, ServiceVersion: "test", Writer: &output})
	require.NoError(testInstance, startError)
	testInstance.Cleanup(func() {
		_, _ = telemetry.Start(context.Background(), telemetry.Configuration{})
	})

	_, span := telemetry.Tracer().Start(context.Background(), testSpanNameConstant)
	span.End()

	require.True(testInstance, span.SpanContext().IsValid())
	require.NoError(testInstance, session.Shutdown(context.Background()))
	require.Contains(testInstance, output.String(), testSpanNameConstant)
}

func TestShutdownOnNilSession(testInstance *testing.T) {
	var session *telemetry.Session
	require.NoError(testInstance, session.Shutdown(context.Background()))
}
