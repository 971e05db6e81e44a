package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/filesystem"
)

const (
	standardOutputLogFileNameConstant = "stdout.log"
	standardErrorLogFileNameConstant  = "stderr.log"
	commandBannerTemplateConstant     = ">> Running %s\n"
	gitCommandLineTemplateConstant    = "git %s"
	argumentSeparatorConstant         = " "
	currentDirectoryConstant          = "."
	parentDirectoryConstant           = ".."
	directoryPermissionsConstant      = 0o755
	logFilePermissionsConstant        = 0o644
	unknownExitCodeConstant           = -1
	logMessageWorkspaceReadyConstant  = "workspace ready"
	logMessageCommandStartedConstant  = "running command"
	logFieldWorkspaceConstant         = "workspace"
	logFieldDirectoryConstant         = "directory"
	logFieldCommandConstant           = "command"
)

// CommandExecutor runs git and shell commands on behalf of a workspace.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteShell(executionContext context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies enumerates the collaborators shared by every workspace of a campaign.
type Dependencies struct {
	FileSystem filesystem.FileSystem
	Executor   CommandExecutor
	Logger     *zap.Logger
	// ScriptDirectory anchors relative script paths. Defaults to the process working directory.
	ScriptDirectory string
}

// Workspace is the isolated directory, log files, and environment owned by one pipeline run.
type Workspace struct {
	name              string
	rootDirectory     string
	workingDirectory  string
	scriptDirectory   string
	environment       map[string]string
	executor          CommandExecutor
	logger            *zap.Logger
	standardOutputLog io.WriteCloser
	standardErrorLog  io.WriteCloser
}

// New recreates parentDirectory/name as an empty directory and opens its append-only log files.
func New(dependencies Dependencies, parentDirectory string, name string, environment map[string]string) (*Workspace, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Executor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 || trimmedName == currentDirectoryConstant || trimmedName == parentDirectoryConstant || strings.ContainsRune(trimmedName, filepath.Separator) {
		return nil, ErrInvalidName
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fileSystem := dependencies.FileSystem
	rootDirectory, absoluteError := fileSystem.Abs(filepath.Join(parentDirectory, trimmedName))
	if absoluteError != nil {
		return nil, PreparationError{Directory: filepath.Join(parentDirectory, trimmedName), Cause: absoluteError}
	}

	scriptDirectory := dependencies.ScriptDirectory
	if len(strings.TrimSpace(scriptDirectory)) == 0 {
		scriptDirectory = currentDirectoryConstant
	}
	scriptDirectory, absoluteError = fileSystem.Abs(scriptDirectory)
	if absoluteError != nil {
		return nil, PreparationError{Directory: scriptDirectory, Cause: absoluteError}
	}

	if removeError := fileSystem.RemoveAll(rootDirectory); removeError != nil {
		return nil, PreparationError{Directory: rootDirectory, Cause: removeError}
	}
	if createError := fileSystem.MkdirAll(rootDirectory, directoryPermissionsConstant); createError != nil {
		return nil, PreparationError{Directory: rootDirectory, Cause: createError}
	}

	standardOutputLog, openError := fileSystem.OpenAppend(filepath.Join(rootDirectory, standardOutputLogFileNameConstant), logFilePermissionsConstant)
	if openError != nil {
		return nil, PreparationError{Directory: rootDirectory, Cause: openError}
	}
	standardErrorLog, openError := fileSystem.OpenAppend(filepath.Join(rootDirectory, standardErrorLogFileNameConstant), logFilePermissionsConstant)
	if openError != nil {
		_ = standardOutputLog.Close()
		return nil, PreparationError{Directory: rootDirectory, Cause: openError}
	}

	copiedEnvironment := make(map[string]string, len(environment))
	for environmentKey, environmentValue := range environment {
		copiedEnvironment[environmentKey] = environmentValue
	}

	logger.Debug(logMessageWorkspaceReadyConstant, zap.String(logFieldWorkspaceConstant, trimmedName), zap.String(logFieldDirectoryConstant, rootDirectory))

	return &Workspace{
		name:              trimmedName,
		rootDirectory:     rootDirectory,
		workingDirectory:  rootDirectory,
		scriptDirectory:   scriptDirectory,
		environment:       copiedEnvironment,
		executor:          dependencies.Executor,
		logger:            logger,
		standardOutputLog: standardOutputLog,
		standardErrorLog:  standardErrorLog,
	}, nil
}

// Name returns the target name the workspace belongs to.
func (workspace *Workspace) Name() string {
	return workspace.name
}

// RootDirectory returns the absolute workspace directory holding the log files.
func (workspace *Workspace) RootDirectory() string {
	return workspace.rootDirectory
}

// WorkingDirectory returns the directory commands currently run in.
func (workspace *Workspace) WorkingDirectory() string {
	return workspace.workingDirectory
}

// SetWorkingDirectory makes subsequent commands run in relativePath beneath the workspace root.
func (workspace *Workspace) SetWorkingDirectory(relativePath string) {
	workspace.workingDirectory = filepath.Join(workspace.rootDirectory, relativePath)
}

// ScriptCommandLine turns a script invocation into a shell command line whose program is anchored
// at the script directory. Arguments are kept and every word is quoted for /bin/sh.
// An invocation that cannot be split is treated as a single path.
func (workspace *Workspace) ScriptCommandLine(scriptInvocation string) string {
	trimmedInvocation := strings.TrimSpace(scriptInvocation)
	if len(trimmedInvocation) == 0 {
		return trimmedInvocation
	}
	words, splitError := execshell.SplitShellWords(trimmedInvocation)
	if splitError != nil || len(words) == 0 {
		words = []string{trimmedInvocation}
	}
	words[0] = workspace.resolveScriptPath(words[0])
	return execshell.JoinShellWords(words)
}

func (workspace *Workspace) resolveScriptPath(scriptPath string) string {
	if filepath.IsAbs(scriptPath) {
		return scriptPath
	}
	return filepath.Join(workspace.scriptDirectory, scriptPath)
}

// RunCommand runs commandLine through the shell and returns its exit code.
func (workspace *Workspace) RunCommand(executionContext context.Context, commandLine string) (int, error) {
	workspace.writeBanner(commandLine)
	_, executionError := workspace.executor.ExecuteShell(executionContext, commandLine, workspace.commandDetails(nil))
	return exitCodeOf(executionError)
}

// RunCommandSuccessfully runs commandLine through the shell and returns a CommandError on a non-zero exit.
func (workspace *Workspace) RunCommandSuccessfully(executionContext context.Context, commandLine string) error {
	exitCode, executionError := workspace.RunCommand(executionContext, commandLine)
	if executionError != nil {
		return executionError
	}
	if exitCode != 0 {
		return CommandError{Command: commandLine, WorkingDirectory: workspace.workingDirectory, ExitCode: exitCode}
	}
	return nil
}

// RunGit runs git with arguments in the working directory, returning a CommandError on a non-zero exit.
func (workspace *Workspace) RunGit(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	commandLine := fmt.Sprintf(gitCommandLineTemplateConstant, strings.Join(arguments, argumentSeparatorConstant))
	workspace.writeBanner(commandLine)
	executionResult, executionError := workspace.executor.ExecuteGit(executionContext, workspace.commandDetails(arguments))
	exitCode, unexpectedError := exitCodeOf(executionError)
	if unexpectedError != nil {
		return execshell.ExecutionResult{}, unexpectedError
	}
	if exitCode != 0 {
		return execshell.ExecutionResult{}, CommandError{Command: commandLine, WorkingDirectory: workspace.workingDirectory, ExitCode: exitCode}
	}
	return executionResult, nil
}

// Close flushes and releases the log files. The directory is left in place for inspection.
func (workspace *Workspace) Close() error {
	return errors.Join(workspace.standardOutputLog.Close(), workspace.standardErrorLog.Close())
}

func (workspace *Workspace) writeBanner(commandLine string) {
	workspace.logger.Debug(logMessageCommandStartedConstant, zap.String(logFieldWorkspaceConstant, workspace.name), zap.String(logFieldCommandConstant, commandLine))
	banner := fmt.Sprintf(commandBannerTemplateConstant, commandLine)
	_, _ = io.WriteString(workspace.standardOutputLog, banner)
	_, _ = io.WriteString(workspace.standardErrorLog, banner)
}

func (workspace *Workspace) commandDetails(arguments []string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workspace.workingDirectory,
		EnvironmentVariables: workspace.environment,
		StandardOutputSink:   workspace.standardOutputLog,
		StandardErrorSink:    workspace.standardErrorLog,
	}
}

func exitCodeOf(executionError error) (int, error) {
	if executionError == nil {
		return 0, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		return failedError.Result.ExitCode, nil
	}
	return unknownExitCodeConstant, executionError
}
