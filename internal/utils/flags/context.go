package flags

import (
	"strings"

	"github.com/spf13/cobra"
)

// Campaign flag names.
const (
	DefinitionFlagName    = "migration-definition"
	WorkDirectoryFlagName = "work-directory"
	ConcurrencyFlagName   = "concurrency"
	GitHubTokenFlagName   = "github-token"
)

const (
	definitionFlagUsageConstant    = "Path to the migration definition"
	workDirectoryFlagUsageConstant = "Directory holding one workspace per target"
	concurrencyFlagUsageConstant   = "Maximum number of targets processed at once"
	gitHubTokenFlagUsageConstant   = "GitHub token; defaults to GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"
)

// CampaignFlagDefinitions selects which campaign flags a command exposes.
type CampaignFlagDefinitions struct {
	Definition    bool
	WorkDirectory bool
	Concurrency   bool
	GitHubToken   bool
}

// CampaignFlagValues holds the defaults shown for campaign flags.
type CampaignFlagValues struct {
	DefinitionPath string
	WorkDirectory  string
	Concurrency    int
}

// BindCampaignFlags attaches the selected campaign flags to command.
func BindCampaignFlags(command *cobra.Command, defaults CampaignFlagValues, definitions CampaignFlagDefinitions) {
	if command == nil {
		return
	}
	flagSet := command.Flags()
	if definitions.Definition && flagSet.Lookup(DefinitionFlagName) == nil {
		flagSet.String(DefinitionFlagName, defaults.DefinitionPath, definitionFlagUsageConstant)
	}
	if definitions.WorkDirectory && flagSet.Lookup(WorkDirectoryFlagName) == nil {
		flagSet.String(WorkDirectoryFlagName, defaults.WorkDirectory, workDirectoryFlagUsageConstant)
	}
	if definitions.Concurrency && flagSet.Lookup(ConcurrencyFlagName) == nil {
		flagSet.Int(ConcurrencyFlagName, defaults.Concurrency, concurrencyFlagUsageConstant)
	}
	if definitions.GitHubToken && flagSet.Lookup(GitHubTokenFlagName) == nil {
		flagSet.String(GitHubTokenFlagName, "", gitHubTokenFlagUsageConstant)
	}
}

// StringValue returns the trimmed flag value when the flag was set on the command line and configured otherwise.
func StringValue(command *cobra.Command, name string, configured string) string {
	if command != nil && command.Flags().Changed(name) {
		if flagValue, flagError := command.Flags().GetString(name); flagError == nil {
			return strings.TrimSpace(flagValue)
		}
	}
	return strings.TrimSpace(configured)
}

// IntValue returns the flag value when the flag was set on the command line and configured otherwise.
func IntValue(command *cobra.Command, name string, configured int) int {
	if command != nil && command.Flags().Changed(name) {
		if flagValue, flagError := command.Flags().GetInt(name); flagError == nil {
			return flagValue
		}
	}
	return configured
}

// BoolValue returns the flag value when the flag was set on the command line and configured otherwise.
func BoolValue(command *cobra.Command, name string, configured bool) bool {
	if command != nil && command.Flags().Changed(name) {
		if flagValue, flagError := command.Flags().GetBool(name); flagError == nil {
			return flagValue
		}
	}
	return configured
}
