package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/clu/internal/execshell"
)

const (
	testCaseMissingLoggerConstant    = "missing logger"
	testCaseMissingRunnerConstant    = "missing runner"
	testCaseScriptSucceedsConstant   = "migration script succeeds"
	testCaseScriptExitsNonZero       = "migration script exits non-zero"
	testCaseShellUnavailableConstant = "shell unavailable"
	testCaseCloneConstant            = "clone"
	testCaseGraphQLConstant          = "graphql"
	testCasePreFlightConstant        = "pre-flight"
	testRepositoryDirectoryConstant  = "/work/widgets/repo"
	testStandardErrorOutputConstant  = "failure"
	testShellScriptConstant          = "./migrate.sh"
	testCloneURLConstant             = "git@github.com:acme/widgets.git"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestNewShellExecutorRequiresCollaborators(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectedError error
	}{
		{name: testCaseMissingLoggerConstant, runner: &recordingCommandRunner{}, expectedError: execshell.ErrLoggerNotConfigured},
		{name: testCaseMissingRunnerConstant, logger: zap.NewNop(), expectedError: execshell.ErrCommandRunnerNotConfigured},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, executor)
		})
	}
}

func TestShellExecutorRunsMigrationScripts(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectedErrorType any
		expectedMessages  []string
	}{
		{
			name:             testCaseScriptSucceedsConstant,
			runnerResult:     execshell.ExecutionResult{StandardOutput: "renamed 3 files\n"},
			expectedMessages: []string{"executing command", "command completed"},
		},
		{
			name:              testCaseScriptExitsNonZero,
			runnerResult:      execshell.ExecutionResult{StandardError: testStandardErrorOutputConstant, ExitCode: 1},
			expectedErrorType: execshell.CommandFailedError{},
			expectedMessages:  []string{"executing command", "command exited with non-zero status"},
		},
		{
			name:              testCaseShellUnavailableConstant,
			runnerError:       errors.New("exec: /bin/sh: not found"),
			expectedErrorType: execshell.CommandExecutionError{},
			expectedMessages:  []string{"executing command", "command execution failed"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			recordingRunner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}
			shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner)
			require.NoError(testInstance, creationError)

			executionResult, executionError := shellExecutor.ExecuteShell(
				context.Background(),
				testShellScriptConstant,
				execshell.CommandDetails{Arguments: []string{"ignored"}, WorkingDirectory: testRepositoryDirectoryConstant},
			)

			if testCase.expectedErrorType != nil {
				require.IsType(testInstance, testCase.expectedErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, []string{execshell.ShellScriptFlag, testShellScriptConstant}, recordingRunner.recordedCommands[0].Details.Arguments)

			messages := make([]string, 0, observedLogs.Len())
			for _, entry := range observedLogs.All() {
				messages = append(messages, entry.Message)
			}
			require.Equal(testInstance, testCase.expectedMessages, messages)
		})
	}
}

func TestShellExecutorTagsCommandsByTool(testInstance *testing.T) {
	testCases := []struct {
		name            string
		invoke          func(executor *execshell.ShellExecutor) error
		expectedCommand execshell.CommandName
	}{
		{
			name: testCaseCloneConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"clone", testCloneURLConstant, "repo"}})
				return executionError
			},
			expectedCommand: execshell.CommandGit,
		},
		{
			name: testCaseGraphQLConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGitHubCLI(context.Background(), execshell.CommandDetails{Arguments: []string{"api", "graphql", "--input", "-"}})
				return executionError
			},
			expectedCommand: execshell.CommandGitHub,
		},
		{
			name: testCasePreFlightConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteShell(context.Background(), "/usr/bin/true", execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandShell,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{executionResult: execshell.ExecutionResult{ExitCode: 128}}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
			require.NoError(testInstance, creationError)

			require.Error(testInstance, testCase.invoke(executor))
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommand, recordingRunner.recordedCommands[0].Name)
		})
	}
}

type recordingCommandEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedCommands []execshell.ShellCommand
	failedCommands    []execshell.ShellCommand
}

func (observer *recordingCommandEventObserver) CommandStarted(command execshell.ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingCommandEventObserver) CommandCompleted(command execshell.ShellCommand, _ execshell.ExecutionResult) {
	observer.completedCommands = append(observer.completedCommands, command)
}

func (observer *recordingCommandEventObserver) CommandExecutionFailed(command execshell.ShellCommand, _ error) {
	observer.failedCommands = append(observer.failedCommands, command)
}

func TestShellExecutorNotifiesObserver(testInstance *testing.T) {
	testInstance.Run(testCaseScriptSucceedsConstant, func(testInstance *testing.T) {
		recordingRunner := &recordingCommandRunner{executionResult: execshell.ExecutionResult{ExitCode: 0}}
		recordingObserver := &recordingCommandEventObserver{}

		executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
		require.NoError(testInstance, creationError)
		executor.WithCommandEventObserver(recordingObserver)

		_, executionError := executor.ExecuteShell(context.Background(), testShellScriptConstant, execshell.CommandDetails{WorkingDirectory: testRepositoryDirectoryConstant})
		require.NoError(testInstance, executionError)

		require.Len(testInstance, recordingObserver.startedCommands, 1)
		require.Len(testInstance, recordingObserver.completedCommands, 1)
		require.Empty(testInstance, recordingObserver.failedCommands)
		require.Equal(testInstance, []string{execshell.ShellScriptFlag, testShellScriptConstant}, recordingRunner.recordedCommands[0].Details.Arguments)
	})
}

func TestCommandFailedErrorRetainsExitCode(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{executionResult: execshell.ExecutionResult{ExitCode: 7, StandardError: testStandardErrorOutputConstant}}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteShell(context.Background(), testShellScriptConstant, execshell.CommandDetails{})

	var failedError execshell.CommandFailedError
	require.True(testInstance, errors.As(executionError, &failedError))
	require.Equal(testInstance, 7, failedError.Result.ExitCode)
	require.Equal(testInstance, "./migrate.sh exited with code 7: failure", failedError.Error())
}
