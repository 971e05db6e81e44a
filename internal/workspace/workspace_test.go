package workspace_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/pipeline"
	"github.com/temirov/clu/internal/workspace"
)

const (
	testWorkspaceNameConstant                = "repo-a"
	testScriptDirectoryConstant              = "/campaign"
	testStandardOutputConstant               = "script output\n"
	testStandardErrorConstant                = "script warning\n"
	testCommandLineConstant                  = "/campaign/rename.sh"
	testEnvironmentKeyConstant               = "TARGET_FLAVOR"
	testEnvironmentValueConstant             = "spicy"
	testInvalidNameCaseConstant              = "invalid_name"
	testMissingExecutorCaseConstant          = "missing_executor"
	testMissingFileSystemCaseConstant        = "missing_file_system"
	testAbsoluteScriptCaseConstant           = "absolute_script"
	testRelativeScriptCaseConstant           = "relative_script"
	testDotRelativeScriptCaseConstant        = "dot_relative_script"
	testScriptArgumentsCaseConstant          = "script_with_arguments"
	testQuotedScriptPathCaseConstant         = "quoted_script_path"
	testUnbalancedQuoteCaseConstant          = "unbalanced_quote"
	testBlankInvocationCaseConstant          = "blank_invocation"
	testEligibleTargetCaseConstant           = "eligible_target"
	testLaunchDirectoryWithSpaceCaseConstant = "launch_directory_with_space"
	testIneligibleTargetCaseConstant         = "ineligible_target"
	testPreFlightScriptConstant              = "#!/bin/sh\nif [ \"$1\" = \"--reject\" ]; then exit 3; fi\nexit 0\n"
)

type stubCommandExecutor struct {
	exitCode        int
	executionError  error
	recordedDetails []execshell.CommandDetails
	recordedLines   []string
}

func (executor *stubCommandExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.respond(execshell.ShellCommand{Name: execshell.CommandGit, Details: details})
}

func (executor *stubCommandExecutor) ExecuteShell(executionContext context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedLines = append(executor.recordedLines, commandLine)
	return executor.respond(execshell.ShellCommand{Name: execshell.CommandShell, Details: details})
}

func (executor *stubCommandExecutor) respond(command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, command.Details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: command, Cause: executor.executionError}
	}
	_, _ = io.WriteString(command.Details.StandardOutputSink, testStandardOutputConstant)
	_, _ = io.WriteString(command.Details.StandardErrorSink, testStandardErrorConstant)
	result := execshell.ExecutionResult{StandardOutput: testStandardOutputConstant, StandardError: testStandardErrorConstant, ExitCode: executor.exitCode}
	if executor.exitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}
	return result, nil
}

func newTestWorkspace(testInstance *testing.T, executor workspace.CommandExecutor) (*workspace.Workspace, string) {
	testInstance.Helper()
	parentDirectory := testInstance.TempDir()
	createdWorkspace, creationError := workspace.New(workspace.Dependencies{
		FileSystem:      filesystem.OSFileSystem{},
		Executor:        executor,
		Logger:          zap.NewNop(),
		ScriptDirectory: testScriptDirectoryConstant,
	}, parentDirectory, testWorkspaceNameConstant, map[string]string{testEnvironmentKeyConstant: testEnvironmentValueConstant})
	require.NoError(testInstance, creationError)
	testInstance.Cleanup(func() { _ = createdWorkspace.Close() })
	return createdWorkspace, parentDirectory
}

func TestNewValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  workspace.Dependencies
		workspaceName string
		expectedError error
	}{
		{
			name:          testMissingFileSystemCaseConstant,
			dependencies:  workspace.Dependencies{Executor: &stubCommandExecutor{}},
			workspaceName: testWorkspaceNameConstant,
			expectedError: workspace.ErrFileSystemNotConfigured,
		},
		{
			name:          testMissingExecutorCaseConstant,
			dependencies:  workspace.Dependencies{FileSystem: filesystem.OSFileSystem{}},
			workspaceName: testWorkspaceNameConstant,
			expectedError: workspace.ErrCommandExecutorNotConfigured,
		},
		{
			name:          testInvalidNameCaseConstant,
			dependencies:  workspace.Dependencies{FileSystem: filesystem.OSFileSystem{}, Executor: &stubCommandExecutor{}},
			workspaceName: "../escape",
			expectedError: workspace.ErrInvalidName,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			createdWorkspace, creationError := workspace.New(testCase.dependencies, testInstance.TempDir(), testCase.workspaceName, nil)
			require.Nil(testInstance, createdWorkspace)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestNewRecreatesDirectory(testInstance *testing.T) {
	parentDirectory := testInstance.TempDir()
	staleDirectory := filepath.Join(parentDirectory, testWorkspaceNameConstant, "repo")
	require.NoError(testInstance, os.MkdirAll(staleDirectory, 0o755))

	createdWorkspace, creationError := workspace.New(workspace.Dependencies{
		FileSystem: filesystem.OSFileSystem{},
		Executor:   &stubCommandExecutor{},
	}, parentDirectory, testWorkspaceNameConstant, nil)
	require.NoError(testInstance, creationError)
	defer createdWorkspace.Close()

	_, statError := os.Stat(staleDirectory)
	require.True(testInstance, os.IsNotExist(statError))
	require.FileExists(testInstance, filepath.Join(parentDirectory, testWorkspaceNameConstant, "stdout.log"))
	require.FileExists(testInstance, filepath.Join(parentDirectory, testWorkspaceNameConstant, "stderr.log"))
	require.Equal(testInstance, createdWorkspace.RootDirectory(), createdWorkspace.WorkingDirectory())
}

func TestRunCommandRecordsOutputAndEnvironment(testInstance *testing.T) {
	executor := &stubCommandExecutor{}
	createdWorkspace, parentDirectory := newTestWorkspace(testInstance, executor)
	createdWorkspace.SetWorkingDirectory("repo")

	exitCode, runError := createdWorkspace.RunCommand(context.Background(), testCommandLineConstant)
	require.NoError(testInstance, runError)
	require.Zero(testInstance, exitCode)
	require.NoError(testInstance, createdWorkspace.Close())

	require.Equal(testInstance, []string{testCommandLineConstant}, executor.recordedLines)
	recordedDetails := executor.recordedDetails[0]
	require.Equal(testInstance, filepath.Join(parentDirectory, testWorkspaceNameConstant, "repo"), recordedDetails.WorkingDirectory)
	require.Equal(testInstance, testEnvironmentValueConstant, recordedDetails.EnvironmentVariables[testEnvironmentKeyConstant])

	standardOutputContents, readError := os.ReadFile(filepath.Join(parentDirectory, testWorkspaceNameConstant, "stdout.log"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, ">> Running "+testCommandLineConstant+"\n"+testStandardOutputConstant, string(standardOutputContents))

	standardErrorContents, readError := os.ReadFile(filepath.Join(parentDirectory, testWorkspaceNameConstant, "stderr.log"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, ">> Running "+testCommandLineConstant+"\n"+testStandardErrorConstant, string(standardErrorContents))
}

func TestRunCommandSuccessfullyReportsExitCode(testInstance *testing.T) {
	executor := &stubCommandExecutor{exitCode: 2}
	createdWorkspace, _ := newTestWorkspace(testInstance, executor)

	exitCode, runError := createdWorkspace.RunCommand(context.Background(), testCommandLineConstant)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 2, exitCode)

	runError = createdWorkspace.RunCommandSuccessfully(context.Background(), testCommandLineConstant)
	require.IsType(testInstance, workspace.CommandError{}, runError)
	require.Equal(testInstance,
		testCommandLineConstant+" exited with 2. You can check "+createdWorkspace.WorkingDirectory()+" for the output files",
		runError.Error(),
	)
}

func TestRunGitFailures(testInstance *testing.T) {
	testCases := []struct {
		name          string
		executor      *stubCommandExecutor
		expectedError any
	}{
		{
			name:          "non_zero_exit",
			executor:      &stubCommandExecutor{exitCode: 128},
			expectedError: workspace.CommandError{},
		},
		{
			name:          "execution_error",
			executor:      &stubCommandExecutor{executionError: errors.New("git not installed")},
			expectedError: execshell.CommandExecutionError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			createdWorkspace, _ := newTestWorkspace(testInstance, testCase.executor)
			_, runError := createdWorkspace.RunGit(context.Background(), "push", "--force-with-lease")
			require.Error(testInstance, runError)
			require.IsType(testInstance, testCase.expectedError, runError)
		})
	}
}

func TestScriptCommandLine(testInstance *testing.T) {
	testCases := []struct {
		name                string
		invocation          string
		expectedCommandLine string
	}{
		{name: testAbsoluteScriptCaseConstant, invocation: "/usr/bin/true", expectedCommandLine: "/usr/bin/true"},
		{name: testRelativeScriptCaseConstant, invocation: "examples/rename.sh", expectedCommandLine: "/campaign/examples/rename.sh"},
		{name: testDotRelativeScriptCaseConstant, invocation: "./eligible.sh", expectedCommandLine: "/campaign/eligible.sh"},
		{name: testScriptArgumentsCaseConstant, invocation: "checks/eligible.sh --strict 'go 1.22'", expectedCommandLine: "/campaign/checks/eligible.sh --strict 'go 1.22'"},
		{name: testQuotedScriptPathCaseConstant, invocation: "'my checks/pre.sh'", expectedCommandLine: "'/campaign/my checks/pre.sh'"},
		{name: testUnbalancedQuoteCaseConstant, invocation: "it's.sh", expectedCommandLine: `'/campaign/it'\''s.sh'`},
		{name: testBlankInvocationCaseConstant, invocation: "  ", expectedCommandLine: ""},
	}

	createdWorkspace, _ := newTestWorkspace(testInstance, &stubCommandExecutor{})
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedCommandLine, createdWorkspace.ScriptCommandLine(testCase.invocation))
		})
	}
}

func TestPreFlightRunsScriptFromLaunchDirectory(testInstance *testing.T) {
	testCases := []struct {
		name               string
		launchDirectory    string
		preFlight          string
		expectedKind       pipeline.OutcomeKind
		expectedAbortCause string
	}{
		{
			name:            testEligibleTargetCaseConstant,
			launchDirectory: "launch",
			preFlight:       "checks/pre.sh",
			expectedKind:    pipeline.OutcomeKindContinue,
		},
		{
			name:            testLaunchDirectoryWithSpaceCaseConstant,
			launchDirectory: "my launch",
			preFlight:       "checks/pre.sh",
			expectedKind:    pipeline.OutcomeKindContinue,
		},
		{
			name:               testIneligibleTargetCaseConstant,
			launchDirectory:    "launch",
			preFlight:          "checks/pre.sh --reject",
			expectedKind:       pipeline.OutcomeKindAbort,
			expectedAbortCause: pipeline.AbortReasonPreFlight,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			baseDirectory := testInstance.TempDir()
			launchDirectory := filepath.Join(baseDirectory, testCase.launchDirectory)
			checksDirectory := filepath.Join(launchDirectory, "checks")
			require.NoError(testInstance, os.MkdirAll(checksDirectory, 0o755))
			require.NoError(testInstance, os.WriteFile(filepath.Join(checksDirectory, "pre.sh"), []byte(testPreFlightScriptConstant), 0o755))

			executor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
			require.NoError(testInstance, executorError)

			createdWorkspace, creationError := workspace.New(workspace.Dependencies{
				FileSystem:      filesystem.OSFileSystem{},
				Executor:        executor,
				Logger:          zap.NewNop(),
				ScriptDirectory: launchDirectory,
			}, filepath.Join(baseDirectory, "workdir"), testWorkspaceNameConstant, nil)
			require.NoError(testInstance, creationError)
			testInstance.Cleanup(func() { _ = createdWorkspace.Close() })

			require.NoError(testInstance, os.MkdirAll(filepath.Join(createdWorkspace.RootDirectory(), pipeline.CloneDirectoryName), 0o755))
			createdWorkspace.SetWorkingDirectory(pipeline.CloneDirectoryName)

			outcome := pipeline.PreFlightStep{CommandLine: testCase.preFlight}.Run(context.Background(), createdWorkspace)
			require.Equal(testInstance, testCase.expectedKind, outcome.Kind(), "%+v", outcome)
			if abortOutcome, isAbort := outcome.(pipeline.AbortOutcome); isAbort {
				require.Equal(testInstance, testCase.expectedAbortCause, abortOutcome.Reason)
			}
		})
	}
}
