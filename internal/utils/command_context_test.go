package utils_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/utils"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/clu/config.yaml")
	executionContext = accessor.WithLogLevel(executionContext, "debug")
	executionContext = accessor.WithRunIdentifier(executionContext, "run-1")

	configurationFilePath, configurationAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "/etc/clu/config.yaml", configurationFilePath)

	logLevel, logLevelAvailable := accessor.LogLevel(executionContext)
	require.True(testInstance, logLevelAvailable)
	require.Equal(testInstance, "debug", logLevel)

	runIdentifier, runIdentifierAvailable := accessor.RunIdentifier(executionContext)
	require.True(testInstance, runIdentifierAvailable)
	require.Equal(testInstance, "run-1", runIdentifier)
}

func TestCommandContextAccessorMissingValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, logLevelAvailable := accessor.LogLevel(context.Background())
	require.False(testInstance, logLevelAvailable)

	_, runIdentifierAvailable := accessor.RunIdentifier(nil) //nolint:staticcheck
	require.False(testInstance, runIdentifierAvailable)

	executionContext := accessor.WithLogLevel(nil, "info") //nolint:staticcheck
	logLevel, available := accessor.LogLevel(executionContext)
	require.True(testInstance, available)
	require.Equal(testInstance, "info", logLevel)
}

func TestNewRunIdentifierIsUnique(testInstance *testing.T) {
	first := utils.NewRunIdentifier()
	second := utils.NewRunIdentifier()

	require.NotEqual(testInstance, first, second)
	_, parseError := uuid.Parse(first)
	require.NoError(testInstance, parseError)
}
