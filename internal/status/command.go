package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/forge/backend"
	"github.com/temirov/clu/internal/githubauth"
	"github.com/temirov/clu/internal/githubcli"
	"github.com/temirov/clu/internal/migrate"
	"github.com/temirov/clu/internal/ui"
	"github.com/temirov/clu/internal/utils"
	"github.com/temirov/clu/internal/utils/flags"
)

const (
	commandUseConstant                    = "status"
	commandShortDescriptionConstant       = "Report the state of every campaign pull request"
	commandLongDescriptionConstant        = "status fetches every pull request recorded in the migration definition and groups them into checks failed, not approved, mergeable, and merged."
	formatFlagNameConstant                = "format"
	formatFlagDescriptionConstant         = "Report format"
	loadErrorTemplateConstant             = "unable to load migration definition: %w"
	forgeClientErrorTemplateConstant      = "unable to construct forge client: %w"
	reconcilerErrorTemplateConstant       = "unable to construct pull request reader: %w"
	executorCreationErrorTemplateConstant = "unable to construct command executor: %w"
	renderErrorTemplateConstant           = "unable to render status report: %w"
	logFieldRunIdentifierConstant         = "run_id"
)

// FormatFlag is the --format choice of the status command.
var FormatFlag = flags.ChoiceFlag{
	Name:        formatFlagNameConstant,
	Default:     FormatMarkdown,
	Choices:     []string{FormatMarkdown, FormatYAML},
	Description: formatFlagDescriptionConstant,
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ForgeClientProvider constructs the forge client used to read pull requests.
type ForgeClientProvider func(configuration backend.Configuration, dependencies backend.Dependencies) (forge.Client, error)

// CommandBuilder assembles the status Cobra command.
type CommandBuilder struct {
	LoggerProvider             LoggerProvider
	ConfigurationProvider      func() migrate.CommandConfiguration
	ForgeConfigurationProvider func() backend.Configuration
	Executor                   githubcli.GitHubCommandExecutor
	FileSystem                 filesystem.FileSystem
	ForgeClientProvider        ForgeClientProvider
	FormatProvider             func() string
}

type commandOptions struct {
	debugLoggingEnabled bool
	definitionPath      string
	concurrency         int
	format              string
	forgeConfiguration  backend.Configuration
	gitHubToken         string
}

// Build constructs the status command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runStatus,
	}

	defaults := migrate.DefaultCommandConfiguration()
	flags.BindCampaignFlags(command, flags.CampaignFlagValues{
		DefinitionPath: defaults.DefinitionPath,
		Concurrency:    defaults.Concurrency,
	}, flags.CampaignFlagDefinitions{Definition: true, Concurrency: true, GitHubToken: true})
	FormatFlag.Bind(command)
	backend.Flag.Bind(command)

	return command, nil
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	if runIdentifier, available := utils.NewCommandContextAccessor().RunIdentifier(command.Context()); available {
		logger = logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	}

	store, storeError := campaign.NewStore(builder.resolveFileSystem(), options.definitionPath, nil)
	if storeError != nil {
		return fmt.Errorf(loadErrorTemplateConstant, storeError)
	}
	state, loadError := store.Load()
	if loadError != nil {
		return fmt.Errorf(loadErrorTemplateConstant, loadError)
	}

	forgeClient, forgeError := builder.resolveForgeClient(options, logger)
	if forgeError != nil {
		return fmt.Errorf(forgeClientErrorTemplateConstant, forgeError)
	}
	reconciler, reconcilerError := forge.NewReconciler(forgeClient, logger)
	if reconcilerError != nil {
		return fmt.Errorf(reconcilerErrorTemplateConstant, reconcilerError)
	}

	service, serviceError := NewService(reconciler, logger, options.concurrency)
	if serviceError != nil {
		return serviceError
	}
	report := service.Collect(command.Context(), state)

	if writeError := writeReport(command.OutOrStdout(), report, options.format); writeError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, writeError)
	}

	return migrate.JoinTargetFailures(report.Failures)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if logLevel, available := utils.NewCommandContextAccessor().LogLevel(command.Context()); available {
		debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
	}

	format, formatError := FormatFlag.Resolve(command, builder.resolveFormat())
	if formatError != nil {
		return commandOptions{}, formatError
	}

	forgeConfiguration := builder.resolveForgeConfiguration()
	backendName, backendError := backend.Flag.Resolve(command, forgeConfiguration.Backend)
	if backendError != nil {
		return commandOptions{}, backendError
	}
	forgeConfiguration.Backend = backendName

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		definitionPath:      flags.StringValue(command, flags.DefinitionFlagName, configuration.DefinitionPath),
		concurrency:         flags.IntValue(command, flags.ConcurrencyFlagName, configuration.Concurrency),
		format:              format,
		forgeConfiguration:  forgeConfiguration,
		gitHubToken:         flags.StringValue(command, flags.GitHubTokenFlagName, ""),
	}, nil
}

func writeReport(writer io.Writer, report Report, format string) error {
	if format == FormatYAML {
		document, renderError := report.YAML()
		if renderError != nil {
			return renderError
		}
		_, writeError := io.WriteString(writer, document)
		return writeError
	}
	_, writeError := io.WriteString(writer, ui.RenderMarkdown(writer, report.Markdown()))
	return writeError
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveForgeClient(options commandOptions, logger *zap.Logger) (forge.Client, error) {
	executor := builder.Executor
	if executor == nil && options.forgeConfiguration.Backend == backend.NameCLI {
		shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
		if executorError != nil {
			return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
		}
		executor = shellExecutor
	}
	dependencies := backend.Dependencies{
		Executor:      executor,
		Logger:        logger,
		TokenResolver: githubauth.NewTokenResolver(nil),
		Token:         options.gitHubToken,
	}
	if builder.ForgeClientProvider != nil {
		return builder.ForgeClientProvider(options.forgeConfiguration, dependencies)
	}
	return backend.NewClient(options.forgeConfiguration, dependencies)
}

func (builder *CommandBuilder) resolveFileSystem() filesystem.FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return filesystem.OSFileSystem{}
}

func (builder *CommandBuilder) resolveConfiguration() migrate.CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return migrate.DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveForgeConfiguration() backend.Configuration {
	if builder.ForgeConfigurationProvider == nil {
		return backend.DefaultConfiguration()
	}
	return builder.ForgeConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveFormat() string {
	if builder.FormatProvider == nil {
		return ""
	}
	return builder.FormatProvider()
}
