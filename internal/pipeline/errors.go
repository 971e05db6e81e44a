package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unableToCheckoutTemplateConstant       = "unable to check out repository: %v"
	migrationStepErroredTemplateConstant   = "migration step %q failed: %v"
	workingDirNotCleanTemplateConstant     = "migration step %q left uncommitted changes: %s"
	pushFailedTemplateConstant             = "unable to push branch: %v"
	unableToCreatePullTemplateConstant     = "unable to create pull request: %v"
	conflictingModesTemplateConstant       = "execution modes %s are mutually exclusive"
	reconcilerNotConfiguredMessageConstant = "pipeline requires a pull request reconciler to publish"
	fileListSeparatorConstant              = ", "
	modeListSeparatorConstant              = " and "
)

// ErrReconcilerNotConfigured indicates publishing is enabled without a reconciler.
var ErrReconcilerNotConfigured = errors.New(reconcilerNotConfiguredMessageConstant)

// UnableToCheckoutRepoError reports a failed clone, branch reset, or push configuration.
type UnableToCheckoutRepoError struct {
	Cause error
}

// Error describes the checkout failure.
func (checkoutError UnableToCheckoutRepoError) Error() string {
	return fmt.Sprintf(unableToCheckoutTemplateConstant, checkoutError.Cause)
}

// Unwrap exposes the underlying cause.
func (checkoutError UnableToCheckoutRepoError) Unwrap() error {
	return checkoutError.Cause
}

// MigrationStepErroredError reports a migration script that exited with a non-zero status.
type MigrationStepErroredError struct {
	StepName string
	Cause    error
}

// Error names the failed step.
func (stepError MigrationStepErroredError) Error() string {
	return fmt.Sprintf(migrationStepErroredTemplateConstant, stepError.StepName, stepError.Cause)
}

// Unwrap exposes the underlying cause.
func (stepError MigrationStepErroredError) Unwrap() error {
	return stepError.Cause
}

// WorkingDirNotCleanError reports files a migration script changed without committing.
type WorkingDirNotCleanError struct {
	StepName string
	Files    []string
}

// Error lists the uncommitted files.
func (cleanError WorkingDirNotCleanError) Error() string {
	return fmt.Sprintf(workingDirNotCleanTemplateConstant, cleanError.StepName, strings.Join(cleanError.Files, fileListSeparatorConstant))
}

// PushFailedError reports a rejected or failed push.
type PushFailedError struct {
	Cause error
}

// Error describes the push failure.
func (pushError PushFailedError) Error() string {
	return fmt.Sprintf(pushFailedTemplateConstant, pushError.Cause)
}

// Unwrap exposes the underlying cause.
func (pushError PushFailedError) Unwrap() error {
	return pushError.Cause
}

// UnableToCreatePullRequestError reports a failed pull request creation or update.
type UnableToCreatePullRequestError struct {
	Cause error
}

// Error describes the forge failure.
func (pullRequestError UnableToCreatePullRequestError) Error() string {
	return fmt.Sprintf(unableToCreatePullTemplateConstant, pullRequestError.Cause)
}

// Unwrap exposes the underlying cause.
func (pullRequestError UnableToCreatePullRequestError) Unwrap() error {
	return pullRequestError.Cause
}

// ConflictingExecutionModesError reports more than one execution mode flag.
type ConflictingExecutionModesError struct {
	Modes []string
}

// Error lists the conflicting modes.
func (modesError ConflictingExecutionModesError) Error() string {
	return fmt.Sprintf(conflictingModesTemplateConstant, strings.Join(modesError.Modes, modeListSeparatorConstant))
}
