package followup

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/forge/backend"
	"github.com/temirov/clu/internal/githubauth"
	"github.com/temirov/clu/internal/migrate"
	"github.com/temirov/clu/internal/ui"
	"github.com/temirov/clu/internal/utils"
	"github.com/temirov/clu/internal/utils/flags"
)

const (
	commandUseConstant                    = "followup <script>"
	commandShortDescriptionConstant       = "Run a script against every open campaign pull request"
	commandLongDescriptionConstant        = "followup runs the given script once per target with an unmerged pull request, in a fresh workspace where CLU_PULL_REQUEST_URL and CLU_CLONE_URL describe the target. The migration definition is not modified."
	errorSummaryFlagNameConstant          = "error-summary"
	errorSummaryFlagUsageConstant         = "Where to write the failures of the follow-up"
	forgeClientErrorTemplateConstant      = "unable to construct forge client: %w"
	reconcilerErrorTemplateConstant       = "unable to construct pull request reader: %w"
	executorCreationErrorTemplateConstant = "unable to construct command executor: %w"
	serviceCreationErrorTemplateConstant  = "unable to construct follow-up service: %w"
	forgeBackendErrorTemplateConstant     = "invalid forge backend: %w"
	logMessageFollowUpFinishedConstant    = "Follow-up finished"
	logFieldRunIdentifierConstant         = "run_id"
	logFieldFailedConstant                = "failed"
	logFieldTargetsConstant               = "targets"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandExecutor runs the shell and gh commands of a follow-up run.
type CommandExecutor = migrate.CommandExecutor

// ServiceProvider constructs a follow-up runner from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (Runner, error)

// ForgeClientProvider constructs the forge client used to read pull requests.
type ForgeClientProvider func(configuration backend.Configuration, dependencies backend.Dependencies) (forge.Client, error)

// CommandBuilder assembles the followup Cobra command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConsoleLoggerProvider         LoggerProvider
	HumanReadableLoggingProvider  func() bool
	ConfigurationProvider         func() CommandConfiguration
	CampaignConfigurationProvider func() migrate.CommandConfiguration
	ForgeConfigurationProvider    func() backend.Configuration
	Executor                      CommandExecutor
	FileSystem                    filesystem.FileSystem
	ForgeClientProvider           ForgeClientProvider
	ServiceProvider               ServiceProvider
	WorkingDirectory              string
}

type commandOptions struct {
	debugLoggingEnabled bool
	runOptions          RunOptions
	forgeConfiguration  backend.Configuration
	gitHubToken         string
}

// Build constructs the followup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runFollowUp,
	}

	campaignDefaults := migrate.DefaultCommandConfiguration()
	flags.BindCampaignFlags(command, flags.CampaignFlagValues{
		DefinitionPath: campaignDefaults.DefinitionPath,
		WorkDirectory:  DefaultWorkDirectory,
		Concurrency:    campaignDefaults.Concurrency,
	}, flags.CampaignFlagDefinitions{Definition: true, WorkDirectory: true, Concurrency: true, GitHubToken: true})
	backend.Flag.Bind(command)
	command.Flags().String(errorSummaryFlagNameConstant, campaignDefaults.ErrorSummaryPath, errorSummaryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runFollowUp(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	if runIdentifier, available := utils.NewCommandContextAccessor().RunIdentifier(command.Context()); available {
		logger = logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	forgeClient, forgeError := builder.resolveForgeClient(options, executor, logger)
	if forgeError != nil {
		return fmt.Errorf(forgeClientErrorTemplateConstant, forgeError)
	}
	reconciler, reconcilerError := forge.NewReconciler(forgeClient, logger)
	if reconcilerError != nil {
		return fmt.Errorf(reconcilerErrorTemplateConstant, reconcilerError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:     logger,
		FileSystem: builder.resolveFileSystem(),
		Executor:   executor,
		Reader:     reconciler,
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	result, runError := service.Run(command.Context(), options.runOptions)
	if runError != nil {
		return runError
	}

	failures := result.Failures()
	logger.Info(logMessageFollowUpFinishedConstant,
		zap.Int(logFieldTargetsConstant, len(result.Outcomes)),
		zap.Int(logFieldFailedConstant, len(failures)),
	)
	return migrate.JoinTargetFailures(failures)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (commandOptions, error) {
	configuration := builder.resolveConfiguration()
	campaignConfiguration := builder.resolveCampaignConfiguration()

	debugEnabled := false
	if logLevel, available := utils.NewCommandContextAccessor().LogLevel(command.Context()); available {
		debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
	}

	forgeConfiguration := builder.resolveForgeConfiguration()
	backendName, backendError := backend.Flag.Resolve(command, forgeConfiguration.Backend)
	if backendError != nil {
		return commandOptions{}, fmt.Errorf(forgeBackendErrorTemplateConstant, backendError)
	}
	forgeConfiguration.Backend = backendName

	script := ""
	if len(arguments) > 0 {
		script = strings.TrimSpace(arguments[0])
	}
	if len(script) == 0 {
		return commandOptions{}, ErrScriptRequired
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		runOptions: RunOptions{
			DefinitionPath:   flags.StringValue(command, flags.DefinitionFlagName, campaignConfiguration.DefinitionPath),
			WorkDirectory:    flags.StringValue(command, flags.WorkDirectoryFlagName, configuration.WorkDirectory),
			ScriptDirectory:  builder.WorkingDirectory,
			Script:           script,
			ErrorSummaryPath: flags.StringValue(command, errorSummaryFlagNameConstant, campaignConfiguration.ErrorSummaryPath),
			Concurrency:      flags.IntValue(command, flags.ConcurrencyFlagName, campaignConfiguration.Concurrency),
		},
		forgeConfiguration: forgeConfiguration,
		gitHubToken:        flags.StringValue(command, flags.GitHubTokenFlagName, ""),
	}, nil
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

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		var consoleLogger *zap.Logger
		if builder.ConsoleLoggerProvider != nil {
			consoleLogger = builder.ConsoleLoggerProvider()
		}
		shellExecutor = shellExecutor.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(consoleLogger))
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveForgeClient(options commandOptions, executor CommandExecutor, logger *zap.Logger) (forge.Client, error) {
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

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (Runner, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveFileSystem() filesystem.FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return filesystem.OSFileSystem{}
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveCampaignConfiguration() migrate.CommandConfiguration {
	if builder.CampaignConfigurationProvider == nil {
		return migrate.DefaultCommandConfiguration()
	}
	return builder.CampaignConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveForgeConfiguration() backend.Configuration {
	if builder.ForgeConfigurationProvider == nil {
		return backend.DefaultConfiguration()
	}
	return builder.ForgeConfigurationProvider().Sanitize()
}
