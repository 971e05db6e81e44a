package migrate

import "errors"

const (
	fileSystemNotConfiguredMessageConstant = "file system not configured"
	executorNotConfiguredMessageConstant   = "command executor not configured"
	targetSeparatorConstant                = ": "
)

var (
	// ErrFileSystemNotConfigured indicates the service was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
	// ErrCommandExecutorNotConfigured indicates the service was constructed without a command executor.
	ErrCommandExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// TargetFailureError attributes a pipeline failure to its target.
type TargetFailureError struct {
	Target string
	Cause  error
}

// Error prefixes the failure with the target name.
func (failureError TargetFailureError) Error() string {
	return failureError.Target + targetSeparatorConstant + failureError.Cause.Error()
}

// Unwrap exposes the pipeline failure.
func (failureError TargetFailureError) Unwrap() error {
	return failureError.Cause
}
