package campaign

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/utils/flags"
)

const (
	initCommandUseConstant              = "init"
	initCommandShortDescriptionConstant = "Write an example migration definition"
	initCommandLongDescriptionConstant  = "init writes a starter migration definition with one step and one target that can be edited into a real campaign."
	forceFlagNameConstant               = "force"
	forceFlagUsageConstant              = "Overwrite an existing migration definition"
	initStoreErrorTemplateConstant      = "unable to prepare migration definition: %w"
	logMessageDefinitionWrittenConstant = "Wrote example migration definition"
	logFieldPathConstant                = "path"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures persisted configuration shared by campaign commands.
type CommandConfiguration struct {
	DefinitionPath string `mapstructure:"definition"`
}

// DefaultDefinitionPath is used when neither configuration nor flags name a definition.
const DefaultDefinitionPath = "migration.toml"

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{DefinitionPath: DefaultDefinitionPath}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.DefinitionPath = strings.TrimSpace(sanitized.DefinitionPath)
	if len(sanitized.DefinitionPath) == 0 {
		sanitized.DefinitionPath = DefaultDefinitionPath
	}
	return sanitized
}

// InitCommandBuilder assembles the init Cobra command.
type InitCommandBuilder struct {
	LoggerProvider        LoggerProvider
	FileSystem            filesystem.FileSystem
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           initCommandUseConstant,
		Short:         initCommandShortDescriptionConstant,
		Long:          initCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runInit,
	}

	flags.BindCampaignFlags(command, flags.CampaignFlagValues{DefinitionPath: DefaultDefinitionPath}, flags.CampaignFlagDefinitions{Definition: true})
	command.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)

	return command, nil
}

func (builder *InitCommandBuilder) runInit(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	definitionPath := flags.StringValue(command, flags.DefinitionFlagName, configuration.DefinitionPath)
	if len(definitionPath) == 0 {
		definitionPath = configuration.DefinitionPath
	}
	overwrite := flags.BoolValue(command, forceFlagNameConstant, false)

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	store, storeError := NewStore(fileSystem, definitionPath, nil)
	if storeError != nil {
		return fmt.Errorf(initStoreErrorTemplateConstant, storeError)
	}
	if store.Exists() && !overwrite {
		return DefinitionExistsError{Path: definitionPath}
	}
	if saveError := store.Save(ExampleState()); saveError != nil {
		return saveError
	}

	builder.resolveLogger().Info(logMessageDefinitionWrittenConstant, zap.String(logFieldPathConstant, definitionPath))
	return nil
}

func (builder *InitCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}

func (builder *InitCommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}
