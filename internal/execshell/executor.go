package execshell

import (
	"context"

	"go.uber.org/zap"
)

const (
	logMessageCommandStartedConstant   = "executing command"
	logMessageCommandCompletedConstant = "command completed"
	logMessageCommandFailedConstant    = "command exited with non-zero status"
	logMessageCommandErroredConstant   = "command execution failed"
	logFieldCommandConstant            = "command"
	logFieldArgumentsConstant          = "arguments"
	logFieldWorkingDirectoryConstant   = "working_directory"
	logFieldExitCodeConstant           = "exit_code"
)

// ShellExecutor runs git, gh, and shell scripts through a CommandRunner while reporting lifecycle events.
type ShellExecutor struct {
	logger               *zap.Logger
	runner               CommandRunner
	observer             CommandEventObserver
	formatter            CommandMessageFormatter
	humanReadableLogging bool
}

// NewShellExecutor constructs a ShellExecutor with structured logging.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observer:  discardingCommandEventObserver{},
		formatter: CommandMessageFormatter{},
	}, nil
}

// WithCommandEventObserver routes lifecycle notifications to observer and switches the executor to human-readable messages.
func (executor *ShellExecutor) WithCommandEventObserver(observer CommandEventObserver) *ShellExecutor {
	if executor == nil {
		return nil
	}
	if observer == nil {
		executor.observer = discardingCommandEventObserver{}
		executor.humanReadableLogging = false
		return executor
	}
	executor.observer = observer
	executor.humanReadableLogging = true
	return executor
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs gh with the supplied details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// ExecuteShell runs commandLine through /bin/sh -c. Arguments in details are replaced.
func (executor *ShellExecutor) ExecuteShell(executionContext context.Context, commandLine string, details CommandDetails) (ExecutionResult, error) {
	details.Arguments = []string{ShellScriptFlag, commandLine}
	return executor.execute(executionContext, ShellCommand{Name: CommandShell, Details: details})
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.observer.CommandStarted(command)
	if !executor.humanReadableLogging {
		executor.logger.Debug(
			logMessageCommandStartedConstant,
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
			zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
		)
	} else {
		executor.logger.Debug(executor.formatter.BuildStartedMessage(command))
	}

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.observer.CommandExecutionFailed(command, runError)
		executor.logger.Warn(
			logMessageCommandErroredConstant,
			zap.String(logFieldCommandConstant, command.CommandLine()),
			zap.Error(runError),
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			logMessageCommandFailedConstant,
			zap.String(logFieldCommandConstant, command.CommandLine()),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	if executor.humanReadableLogging {
		executor.logger.Debug(executor.formatter.BuildSuccessMessage(command))
	} else {
		executor.logger.Debug(
			logMessageCommandCompletedConstant,
			zap.String(logFieldCommandConstant, command.CommandLine()),
		)
	}

	return executionResult, nil
}
