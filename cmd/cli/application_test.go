package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/followup"
	"github.com/temirov/clu/internal/forge/backend"
	"github.com/temirov/clu/internal/migrate"
	"github.com/temirov/clu/internal/status"
	"github.com/temirov/clu/internal/utils"
)

const (
	testDefinitionFileNameConstant    = "campaign.toml"
	testConfigurationFileNameConstant = "config.yaml"
	testEnvironmentFileNameConstant   = "extra.env"
	testStatusFormatVariableConstant  = "CLU_STATUS_FORMAT"
	testConcurrencyVariableConstant   = "CLU_MIGRATION_CONCURRENCY"
	embeddedMigrationCaseConstant     = "MigrationDefaults"
	embeddedForgeCaseConstant         = "ForgeDefaults"
	embeddedFollowUpCaseConstant      = "FollowUpDefaults"
	embeddedCommonCaseConstant        = "CommonDefaults"
)

func TestEmbeddedDefaultConfigurationMatchesCommandDefaults(testInstance *testing.T) {
	content, configurationType := EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(content)))

	var configuration ApplicationConfiguration
	require.NoError(testInstance, mapstructure.Decode(viperInstance.AllSettings(), &configuration))

	testCases := []struct {
		name     string
		expected any
		actual   any
	}{
		{name: embeddedMigrationCaseConstant, expected: migrate.DefaultCommandConfiguration(), actual: configuration.Migration},
		{name: embeddedForgeCaseConstant, expected: backend.DefaultConfiguration(), actual: configuration.Forge},
		{name: embeddedFollowUpCaseConstant, expected: followup.DefaultCommandConfiguration(), actual: configuration.FollowUp},
		{
			name:     embeddedCommonCaseConstant,
			expected: []string{string(utils.LogLevelInfo), string(utils.LogFormatStructured)},
			actual:   []string{configuration.Common.LogLevel, configuration.Common.LogFormat},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, testCase.actual)
		})
	}
	require.Empty(testInstance, configuration.Common.EnvironmentFiles)
	require.Equal(testInstance, status.FormatMarkdown, configuration.Status.Format)
	require.False(testInstance, configuration.Telemetry.Enabled)
}

func TestApplicationRegistersCampaignCommands(testInstance *testing.T) {
	application := NewApplication()

	registered := map[string]bool{}
	for _, command := range application.rootCommand.Commands() {
		registered[command.Name()] = true
	}
	for _, expectedName := range []string{"init", "run", "status", "followup"} {
		require.True(testInstance, registered[expectedName], expectedName)
	}
}

func TestApplicationInitializesConfigurationForSubcommand(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	definitionPath := filepath.Join(temporaryDirectory, testDefinitionFileNameConstant)
	testInstance.Setenv(testConcurrencyVariableConstant, "7")

	application := NewApplication()
	application.telemetryWriter = &bytes.Buffer{}
	application.rootCommand.SetArgs([]string{"init", "--migration-definition", definitionPath, "--log-level", "error"})

	require.NoError(testInstance, application.Execute())

	_, statError := os.Stat(definitionPath)
	require.NoError(testInstance, statError)
	require.Equal(testInstance, 7, application.configuration.Migration.Concurrency)
	require.Equal(testInstance, "error", application.configuration.Common.LogLevel)

	accessor := utils.NewCommandContextAccessor()
	runIdentifier, hasRunIdentifier := accessor.RunIdentifier(application.rootCommand.Context())
	require.True(testInstance, hasRunIdentifier)
	require.NotEmpty(testInstance, runIdentifier)
	logLevel, hasLogLevel := accessor.LogLevel(application.rootCommand.Context())
	require.True(testInstance, hasLogLevel)
	require.Equal(testInstance, "error", logLevel)
}

func TestApplicationLoadsConfiguredEnvironmentFiles(testInstance *testing.T) {
	_, alreadySet := os.LookupEnv(testStatusFormatVariableConstant)
	if alreadySet {
		testInstance.Skip("status format already set in the environment")
	}
	testInstance.Cleanup(func() {
		_ = os.Unsetenv(testStatusFormatVariableConstant)
	})

	temporaryDirectory := testInstance.TempDir()
	environmentFilePath := filepath.Join(temporaryDirectory, testEnvironmentFileNameConstant)
	require.NoError(testInstance, os.WriteFile(environmentFilePath, []byte(testStatusFormatVariableConstant+"=yaml\n"), 0o600))
	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	configurationContent := "common:\n  log_level: error\n  env_files:\n    - " + environmentFilePath + "\n"
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))

	application := NewApplication()
	application.rootCommand.SetArgs([]string{"--config", configurationPath, "init", "--migration-definition", filepath.Join(temporaryDirectory, testDefinitionFileNameConstant)})

	require.NoError(testInstance, application.Execute())
	require.Equal(testInstance, status.FormatYAML, application.configuration.Status.Format)
	require.Equal(testInstance, configurationPath, application.configurationMetadata.ConfigFileUsed)
}

func TestApplicationRejectsMissingEnvironmentFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	configurationContent := "common:\n  env_files:\n    - " + filepath.Join(temporaryDirectory, "absent.env") + "\n"
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))

	application := NewApplication()
	application.rootCommand.SetArgs([]string{"--config", configurationPath, "init", "--migration-definition", filepath.Join(temporaryDirectory, testDefinitionFileNameConstant)})

	require.ErrorContains(testInstance, application.Execute(), "unable to load environment files")
}
