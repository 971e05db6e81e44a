package followup

import "errors"

const (
	fileSystemNotConfiguredMessageConstant = "file system not configured"
	executorNotConfiguredMessageConstant   = "command executor not configured"
	readerNotConfiguredMessageConstant     = "pull request reader not configured"
	missingScriptMessageConstant           = "follow-up script is required"
)

var (
	// ErrFileSystemNotConfigured indicates the service was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
	// ErrCommandExecutorNotConfigured indicates the service was constructed without a command executor.
	ErrCommandExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrStatusReaderNotConfigured indicates the service was constructed without a pull request reader.
	ErrStatusReaderNotConfigured = errors.New(readerNotConfiguredMessageConstant)
	// ErrScriptRequired indicates a run was requested without a script.
	ErrScriptRequired = errors.New(missingScriptMessageConstant)
)
