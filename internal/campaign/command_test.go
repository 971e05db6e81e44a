package campaign_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/campaign"
)

func runInitCommand(testInstance *testing.T, configuration campaign.CommandConfiguration, arguments ...string) error {
	testInstance.Helper()
	builder := campaign.InitCommandBuilder{
		ConfigurationProvider: func() campaign.CommandConfiguration { return configuration },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs(arguments)
	return command.Execute()
}

func TestInitCommandWritesExampleDefinition(testInstance *testing.T) {
	definitionPath := filepath.Join(testInstance.TempDir(), "campaign.toml")

	require.NoError(testInstance, runInitCommand(testInstance, campaign.CommandConfiguration{DefinitionPath: definitionPath}))

	contents, readError := os.ReadFile(definitionPath)
	require.NoError(testInstance, readError)
	state, decodeError := campaign.Decode(contents)
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, campaign.ExampleState(), state)
}

func TestInitCommandRefusesToOverwriteWithoutForce(testInstance *testing.T) {
	definitionPath := filepath.Join(testInstance.TempDir(), "migration.toml")
	require.NoError(testInstance, os.WriteFile(definitionPath, []byte("keep"), 0o644))

	initError := runInitCommand(testInstance, campaign.DefaultCommandConfiguration(), "--migration-definition", definitionPath)
	require.IsType(testInstance, campaign.DefinitionExistsError{}, initError)

	contents, readError := os.ReadFile(definitionPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "keep", string(contents))

	require.NoError(testInstance, runInitCommand(testInstance, campaign.DefaultCommandConfiguration(), "--migration-definition", definitionPath, "--force"))
	contents, readError = os.ReadFile(definitionPath)
	require.NoError(testInstance, readError)
	require.NotEqual(testInstance, "keep", string(contents))
}

func TestCommandConfigurationSanitizeRestoresDefault(testInstance *testing.T) {
	require.Equal(testInstance, campaign.DefaultDefinitionPath, campaign.CommandConfiguration{DefinitionPath: "  "}.Sanitize().DefinitionPath)
}
