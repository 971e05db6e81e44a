package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/followup"
	"github.com/temirov/clu/internal/forge/backend"
	"github.com/temirov/clu/internal/migrate"
	"github.com/temirov/clu/internal/status"
	"github.com/temirov/clu/internal/telemetry"
	"github.com/temirov/clu/internal/utils"
)

// Version is the application version reported by --version and telemetry. Overridden at link time.
var Version = "dev"

const (
	applicationNameConstant                 = "clu"
	applicationShortDescriptionConstant     = "Apply one scripted change to many repositories"
	applicationLongDescriptionConstant      = "clu runs a migration recipe against every repository listed in a TOML definition, pushes a campaign branch, opens or updates one pull request per repository, and reports where those pull requests stand."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonEnvironmentFilesConfigKeyConstant = commonConfigurationKeyConstant + ".env_files"
	migrationConfigurationKeyConstant       = "migration"
	statusConfigurationKeyConstant          = "status"
	statusFormatConfigKeyConstant           = statusConfigurationKeyConstant + ".format"
	forgeConfigurationKeyConstant           = "forge"
	forgeBackendConfigKeyConstant           = forgeConfigurationKeyConstant + ".backend"
	forgeBaseURLConfigKeyConstant           = forgeConfigurationKeyConstant + ".base_url"
	followUpConfigurationKeyConstant        = "followup"
	telemetryConfigurationKeyConstant       = "telemetry"
	telemetryEnabledConfigKeyConstant       = telemetryConfigurationKeyConstant + ".enabled"
	telemetryStdoutConfigKeyConstant        = telemetryConfigurationKeyConstant + ".stdout"
	environmentPrefixConstant               = "CLU"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationDirectoryNameConstant      = ".clu"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	embeddedDefaultsFieldConstant           = "embedded_defaults"
	environmentFilesFieldConstant           = "env_files"
	runIdentifierFieldConstant              = "run_id"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	environmentLoadErrorTemplateConstant    = "unable to load environment files: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	telemetryStartErrorTemplateConstant     = "unable to start telemetry: %w"
	telemetryShutdownErrorTemplateConstant  = "unable to flush telemetry: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common"`
	Migration migrate.CommandConfiguration      `mapstructure:"migration"`
	Status    ApplicationStatusConfiguration    `mapstructure:"status"`
	Forge     backend.Configuration             `mapstructure:"forge"`
	FollowUp  followup.CommandConfiguration     `mapstructure:"followup"`
	Telemetry ApplicationTelemetryConfiguration `mapstructure:"telemetry"`
}

// ApplicationCommonConfiguration stores logging and environment configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel         string   `mapstructure:"log_level"`
	LogFormat        string   `mapstructure:"log_format"`
	EnvironmentFiles []string `mapstructure:"env_files"`
}

// ApplicationStatusConfiguration stores defaults for the status command.
type ApplicationStatusConfiguration struct {
	Format string `mapstructure:"format"`
}

// ApplicationTelemetryConfiguration toggles span and metric export.
type ApplicationTelemetryConfiguration struct {
	Enabled bool `mapstructure:"enabled"`
	Stdout  bool `mapstructure:"stdout"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	environmentLoader      utils.EnvironmentFileLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	telemetrySession       *telemetry.Session
	telemetryWriter        io.Writer
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		environmentLoader:      utils.NewEnvironmentFileLoader(utils.ProcessEnvironment{}),
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		workingDirectory = ""
	}

	initBuilder := campaign.InitCommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ConfigurationProvider: func() campaign.CommandConfiguration {
			return application.configuration.Migration.CampaignConfiguration()
		},
	}
	if initCommand, initBuildError := initBuilder.Build(); initBuildError == nil {
		cobraCommand.AddCommand(initCommand)
	}

	runBuilder := migrate.CommandBuilder{
		LoggerProvider:               application.diagnosticLogger,
		ConsoleLoggerProvider:        application.humanReadableLogger,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() migrate.CommandConfiguration {
			return application.configuration.Migration
		},
		ForgeConfigurationProvider: application.forgeConfiguration,
		WorkingDirectory:           workingDirectory,
	}
	if runCommand, runBuildError := runBuilder.Build(); runBuildError == nil {
		cobraCommand.AddCommand(runCommand)
	}

	statusBuilder := status.CommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ConfigurationProvider: func() migrate.CommandConfiguration {
			return application.configuration.Migration
		},
		ForgeConfigurationProvider: application.forgeConfiguration,
		FormatProvider: func() string {
			return application.configuration.Status.Format
		},
	}
	if statusCommand, statusBuildError := statusBuilder.Build(); statusBuildError == nil {
		cobraCommand.AddCommand(statusCommand)
	}

	followUpBuilder := followup.CommandBuilder{
		LoggerProvider:               application.diagnosticLogger,
		ConsoleLoggerProvider:        application.humanReadableLogger,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() followup.CommandConfiguration {
			return application.configuration.FollowUp
		},
		CampaignConfigurationProvider: func() migrate.CommandConfiguration {
			return application.configuration.Migration
		},
		ForgeConfigurationProvider: application.forgeConfiguration,
		WorkingDirectory:           workingDirectory,
	}
	if followUpCommand, followUpBuildError := followUpBuilder.Build(); followUpBuildError == nil {
		cobraCommand.AddCommand(followUpCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger and telemetry flushing.
func (application *Application) Execute() error {
	return application.ExecuteContext(context.Background())
}

// ExecuteContext runs the command hierarchy under executionContext. Cancelling it stops
// pending targets; targets already running observe the cancellation through their commands.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	executionError := application.rootCommand.ExecuteContext(executionContext)
	var flushErrors []error
	if shutdownError := application.telemetrySession.Shutdown(context.WithoutCancel(executionContext)); shutdownError != nil {
		flushErrors = append(flushErrors, fmt.Errorf(telemetryShutdownErrorTemplateConstant, shutdownError))
	}
	if syncError := application.flushLogger(); syncError != nil {
		flushErrors = append(flushErrors, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	if executionError != nil {
		return executionError
	}
	return errors.Join(flushErrors...)
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute(executionContext context.Context) error {
	return NewApplication().ExecuteContext(executionContext)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	if _, environmentError := application.environmentLoader.Load([]string{utils.DefaultEnvironmentFileName}, false); environmentError != nil {
		return fmt.Errorf(environmentLoadErrorTemplateConstant, environmentError)
	}

	if loadError := application.loadConfiguration(); loadError != nil {
		return loadError
	}

	loadedEnvironmentFiles, environmentError := application.environmentLoader.Load(application.configuration.Common.EnvironmentFiles, true)
	if environmentError != nil {
		return fmt.Errorf(environmentLoadErrorTemplateConstant, environmentError)
	}
	if len(loadedEnvironmentFiles) > 0 {
		if reloadError := application.loadConfiguration(); reloadError != nil {
			return reloadError
		}
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	runIdentifier := utils.NewRunIdentifier()
	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Bool(embeddedDefaultsFieldConstant, application.configurationMetadata.EmbeddedDefaultsApplied),
		zap.Strings(environmentFilesFieldConstant, loadedEnvironmentFiles),
		zap.String(runIdentifierFieldConstant, runIdentifier),
	)

	telemetrySession, telemetryError := telemetry.Start(command.Context(), telemetry.Configuration{
		Enabled:        application.configuration.Telemetry.Enabled,
		ServiceName:    applicationNameConstant,
		ServiceVersion: Version,
		Writer:         application.resolveTelemetryWriter(),
	})
	if telemetryError != nil {
		return fmt.Errorf(telemetryStartErrorTemplateConstant, telemetryError)
	}
	application.telemetrySession = telemetrySession

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
		command.Context(),
		application.configurationMetadata.ConfigFileUsed,
	)
	updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)
	updatedContext = application.commandContextAccessor.WithRunIdentifier(updatedContext, runIdentifier)
	command.SetContext(updatedContext)
	if rootCommand := command.Root(); rootCommand != nil {
		rootCommand.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) loadConfiguration() error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:         string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:        string(utils.LogFormatStructured),
		commonEnvironmentFilesConfigKeyConstant: []string{},
		statusFormatConfigKeyConstant:           status.FormatMarkdown,
		forgeBackendConfigKeyConstant:           backend.DefaultName,
		forgeBaseURLConfigKeyConstant:           "",
		telemetryEnabledConfigKeyConstant:       false,
		telemetryStdoutConfigKeyConstant:        false,
	}
	for configurationKey, configurationValue := range migrate.DefaultConfigurationValues(migrationConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range followup.DefaultConfigurationValues(followUpConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration
	return nil
}

func (application *Application) diagnosticLogger() *zap.Logger {
	return application.logger
}

func (application *Application) humanReadableLogger() *zap.Logger {
	return application.consoleLogger
}

func (application *Application) forgeConfiguration() backend.Configuration {
	return application.configuration.Forge
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) resolveTelemetryWriter() io.Writer {
	if application.telemetryWriter != nil {
		return application.telemetryWriter
	}
	if application.configuration.Telemetry.Stdout {
		return os.Stdout
	}
	return os.Stderr
}

func (application *Application) flushLogger() error {
	return errors.Join(
		application.syncLoggerInstance(application.logger),
		application.syncLoggerInstance(application.consoleLogger),
	)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && len(homeDirectory) > 0 {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, configurationDirectoryNameConstant))
	}
	return searchPaths
}
