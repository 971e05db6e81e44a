package workspace

import (
	"errors"
	"fmt"
)

const (
	commandErrorTemplateConstant                = "%s exited with %d. You can check %s for the output files"
	fileSystemNotConfiguredMessageConstant      = "workspace file system not configured"
	commandExecutorNotConfiguredMessageConstant = "workspace command executor not configured"
	invalidNameMessageConstant                  = "workspace name must be a single non-empty path segment"
	preparationErrorTemplateConstant            = "prepare workspace %s: %v"
)

var (
	// ErrFileSystemNotConfigured indicates the workspace was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
	// ErrCommandExecutorNotConfigured indicates the workspace was constructed without a command executor.
	ErrCommandExecutorNotConfigured = errors.New(commandExecutorNotConfiguredMessageConstant)
	// ErrInvalidName indicates the workspace name cannot be used as a directory name.
	ErrInvalidName = errors.New(invalidNameMessageConstant)
)

// CommandError reports a command that ran in the workspace and exited with a non-zero status.
type CommandError struct {
	Command          string
	WorkingDirectory string
	ExitCode         int
}

// Error points the operator at the workspace holding the command output.
func (commandError CommandError) Error() string {
	return fmt.Sprintf(commandErrorTemplateConstant, commandError.Command, commandError.ExitCode, commandError.WorkingDirectory)
}

// PreparationError reports a failure creating the workspace directory or its log files.
type PreparationError struct {
	Directory string
	Cause     error
}

// Error describes the preparation failure.
func (preparationError PreparationError) Error() string {
	return fmt.Sprintf(preparationErrorTemplateConstant, preparationError.Directory, preparationError.Cause)
}

// Unwrap exposes the underlying cause.
func (preparationError PreparationError) Unwrap() error {
	return preparationError.Cause
}
