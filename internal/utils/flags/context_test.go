package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBindCampaignFlagsRegistersSelectedFlags(t *testing.T) {
	command := &cobra.Command{}

	BindCampaignFlags(command, CampaignFlagValues{DefinitionPath: "migration.toml", WorkDirectory: "work-dir", Concurrency: 3}, CampaignFlagDefinitions{Definition: true, Concurrency: true})

	require.NotNil(t, command.Flags().Lookup(DefinitionFlagName))
	require.NotNil(t, command.Flags().Lookup(ConcurrencyFlagName))
	require.Nil(t, command.Flags().Lookup(WorkDirectoryFlagName))
	require.Nil(t, command.Flags().Lookup(GitHubTokenFlagName))
	require.Equal(t, "migration.toml", command.Flags().Lookup(DefinitionFlagName).DefValue)
}

func TestValueResolversPreferChangedFlags(t *testing.T) {
	command := &cobra.Command{}
	BindCampaignFlags(command, CampaignFlagValues{}, CampaignFlagDefinitions{Definition: true, WorkDirectory: true, Concurrency: true})

	require.Equal(t, "configured.toml", StringValue(command, DefinitionFlagName, " configured.toml "))
	require.Equal(t, 5, IntValue(command, ConcurrencyFlagName, 5))

	parseError := command.ParseFlags([]string{"--" + DefinitionFlagName, " cli.toml ", "--" + ConcurrencyFlagName, "7"})
	require.NoError(t, parseError)

	require.Equal(t, "cli.toml", StringValue(command, DefinitionFlagName, "configured.toml"))
	require.Equal(t, 7, IntValue(command, ConcurrencyFlagName, 5))
	require.Equal(t, "configured-dir", StringValue(command, WorkDirectoryFlagName, "configured-dir"))
	require.Equal(t, "fallback", StringValue(nil, DefinitionFlagName, "fallback"))
}

func TestReadExecutionFlagsOverridesConfiguration(t *testing.T) {
	command := &cobra.Command{}
	BindExecutionFlags(command, ExecutionFlagValues{})

	parseError := command.ParseFlags([]string{"--" + SkipPushFlagName})
	require.NoError(t, parseError)

	values := ReadExecutionFlags(command, ExecutionFlagValues{DryRun: true})
	require.Equal(t, ExecutionFlagValues{DryRun: true, SkipPush: true}, values)
}
