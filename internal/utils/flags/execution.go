// Package flags binds the flags shared by the campaign commands and resolves them against configuration.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execution mode flag names.
const (
	DryRunFlagName          = "dry-run"
	SkipPushFlagName        = "skip-push"
	SkipPullRequestFlagName = "skip-pull-request"
)

const (
	dryRunFlagUsageConstant          = "Run the migration steps locally without pushing or opening pull requests"
	skipPushFlagUsageConstant        = "Run the migration steps but do not push branches"
	skipPullRequestFlagUsageConstant = "Push branches but do not create or update pull requests"
)

// ExecutionFlagValues holds the execution mode switches of a run.
type ExecutionFlagValues struct {
	DryRun          bool
	SkipPush        bool
	SkipPullRequest bool
}

// BindExecutionFlags attaches the execution mode switches to command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionFlagValues) {
	if command == nil {
		return
	}
	flagSet := command.Flags()
	bindBoolFlag(flagSet, DryRunFlagName, defaults.DryRun, dryRunFlagUsageConstant)
	bindBoolFlag(flagSet, SkipPushFlagName, defaults.SkipPush, skipPushFlagUsageConstant)
	bindBoolFlag(flagSet, SkipPullRequestFlagName, defaults.SkipPullRequest, skipPullRequestFlagUsageConstant)
}

// ReadExecutionFlags returns the switch values, preferring explicitly set flags over configured.
func ReadExecutionFlags(command *cobra.Command, configured ExecutionFlagValues) ExecutionFlagValues {
	return ExecutionFlagValues{
		DryRun:          BoolValue(command, DryRunFlagName, configured.DryRun),
		SkipPush:        BoolValue(command, SkipPushFlagName, configured.SkipPush),
		SkipPullRequest: BoolValue(command, SkipPullRequestFlagName, configured.SkipPullRequest),
	}
}

func bindBoolFlag(flagSet *pflag.FlagSet, name string, defaultValue bool, usage string) {
	if flagSet == nil || flagSet.Lookup(name) != nil {
		return
	}
	flagSet.Bool(name, defaultValue, usage)
}
