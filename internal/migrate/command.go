package migrate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/forge/backend"
	"github.com/temirov/clu/internal/githubauth"
	"github.com/temirov/clu/internal/githubcli"
	"github.com/temirov/clu/internal/pipeline"
	"github.com/temirov/clu/internal/ui"
	"github.com/temirov/clu/internal/utils"
	"github.com/temirov/clu/internal/utils/flags"
	"github.com/temirov/clu/internal/workspace"
)

const (
	commandUseConstant                    = "run"
	commandShortDescriptionConstant       = "Apply the migration to every target"
	commandLongDescriptionConstant        = "run clones every target, applies the migration steps in order, pushes the campaign branch, and opens or updates one pull request per repository. Failures are collected in the error summary."
	errorSummaryFlagNameConstant          = "error-summary"
	errorSummaryFlagUsageConstant         = "Where to write the failures of the run"
	forgeClientErrorTemplateConstant      = "unable to construct forge client: %w"
	reconcilerErrorTemplateConstant       = "unable to construct pull request reconciler: %w"
	executorCreationErrorTemplateConstant = "unable to construct command executor: %w"
	serviceCreationErrorTemplateConstant  = "unable to construct migration service: %w"
	forgeBackendErrorTemplateConstant     = "invalid forge backend: %w"
	logMessageRunFinishedConstant         = "Migration finished"
	logFieldRunIdentifierConstant         = "run_id"
	logFieldSucceededConstant             = "succeeded"
	logFieldAbortedConstant               = "aborted"
	logFieldFailedConstant                = "failed"
	logFieldBackupConstant                = "backup"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandExecutor runs the git, shell, and gh commands of a campaign run.
type CommandExecutor interface {
	workspace.CommandExecutor
	githubcli.GitHubCommandExecutor
}

// ServiceProvider constructs a campaign runner from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (Runner, error)

// ForgeClientProvider constructs the forge client used to publish pull requests.
type ForgeClientProvider func(configuration backend.Configuration, dependencies backend.Dependencies) (forge.Client, error)

type commandOptions struct {
	debugLoggingEnabled bool
	runOptions          RunOptions
	forgeConfiguration  backend.Configuration
	gitHubToken         string
}

// CommandBuilder assembles the run Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ForgeConfigurationProvider   func() backend.Configuration
	Executor                     CommandExecutor
	FileSystem                   filesystem.FileSystem
	ForgeClientProvider          ForgeClientProvider
	ServiceProvider              ServiceProvider
	WorkingDirectory             string
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigration,
	}

	defaults := DefaultCommandConfiguration()
	flags.BindCampaignFlags(command, flags.CampaignFlagValues{
		DefinitionPath: defaults.DefinitionPath,
		WorkDirectory:  defaults.WorkDirectory,
		Concurrency:    defaults.Concurrency,
	}, flags.CampaignFlagDefinitions{Definition: true, WorkDirectory: true, Concurrency: true, GitHubToken: true})
	flags.BindExecutionFlags(command, flags.ExecutionFlagValues{})
	backend.Flag.Bind(command)
	command.Flags().String(errorSummaryFlagNameConstant, defaults.ErrorSummaryPath, errorSummaryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigration(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	contextAccessor := utils.NewCommandContextAccessor()
	logger := builder.resolveLogger(options.debugLoggingEnabled)
	if runIdentifier, available := contextAccessor.RunIdentifier(command.Context()); available {
		logger = logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	var synchronizer pipeline.PullRequestSynchronizer
	if options.runOptions.Mode.PublishEnabled() {
		forgeClient, forgeError := builder.resolveForgeClient(options, executor, logger)
		if forgeError != nil {
			return fmt.Errorf(forgeClientErrorTemplateConstant, forgeError)
		}
		reconciler, reconcilerError := forge.NewReconciler(forgeClient, logger)
		if reconcilerError != nil {
			return fmt.Errorf(reconcilerErrorTemplateConstant, reconcilerError)
		}
		synchronizer = reconciler
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:       logger,
		FileSystem:   builder.resolveFileSystem(),
		Executor:     executor,
		Synchronizer: synchronizer,
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	result, runError := service.Run(command.Context(), options.runOptions)
	if runError != nil {
		return runError
	}

	builder.logSummary(logger, result)
	return JoinTargetFailures(result.Failures())
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
		}
	}

	executionFlags := flags.ReadExecutionFlags(command, flags.ExecutionFlagValues{})
	mode, modeError := pipeline.ResolveExecutionMode(executionFlags.DryRun, executionFlags.SkipPush, executionFlags.SkipPullRequest)
	if modeError != nil {
		return commandOptions{}, modeError
	}

	forgeConfiguration := builder.resolveForgeConfiguration()
	backendName, backendError := backend.Flag.Resolve(command, forgeConfiguration.Backend)
	if backendError != nil {
		return commandOptions{}, fmt.Errorf(forgeBackendErrorTemplateConstant, backendError)
	}
	forgeConfiguration.Backend = backendName

	runOptions := RunOptions{
		DefinitionPath:   flags.StringValue(command, flags.DefinitionFlagName, configuration.DefinitionPath),
		WorkDirectory:    flags.StringValue(command, flags.WorkDirectoryFlagName, configuration.WorkDirectory),
		ScriptDirectory:  builder.WorkingDirectory,
		ErrorSummaryPath: flags.StringValue(command, errorSummaryFlagNameConstant, configuration.ErrorSummaryPath),
		Concurrency:      flags.IntValue(command, flags.ConcurrencyFlagName, configuration.Concurrency),
		Mode:             mode,
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		runOptions:          runOptions,
		forgeConfiguration:  forgeConfiguration,
		gitHubToken:         flags.StringValue(command, flags.GitHubTokenFlagName, ""),
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

func (builder *CommandBuilder) resolveForgeConfiguration() backend.Configuration {
	if builder.ForgeConfigurationProvider == nil {
		return backend.DefaultConfiguration()
	}
	return builder.ForgeConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) logSummary(logger *zap.Logger, result RunResult) {
	succeeded, aborted, failed := 0, 0, 0
	for _, outcome := range result.Outcomes {
		switch outcome.Kind() {
		case pipeline.OutcomeKindContinue:
			succeeded++
		case pipeline.OutcomeKindAbort:
			aborted++
		case pipeline.OutcomeKindFailure:
			failed++
		}
	}
	logger.Info(logMessageRunFinishedConstant,
		zap.Int(logFieldSucceededConstant, succeeded),
		zap.Int(logFieldAbortedConstant, aborted),
		zap.Int(logFieldFailedConstant, failed),
		zap.String(logFieldBackupConstant, result.BackupPath),
	)
}

// JoinTargetFailures joins failures into one error, one TargetFailureError per target in name order.
func JoinTargetFailures(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	campaignErrors := make([]error, 0, len(names))
	for _, name := range names {
		campaignErrors = append(campaignErrors, TargetFailureError{Target: name, Cause: failures[name]})
	}
	return errors.Join(campaignErrors...)
}
