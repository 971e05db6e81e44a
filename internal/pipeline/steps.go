package pipeline

import (
	"context"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
)

// Names of the fixed steps. Migration steps are named after their recipe entry.
const (
	StepNameClone       = "clone"
	StepNamePreFlight   = "pre-flight"
	StepNamePush        = "push"
	StepNamePullRequest = "pull-request"
)

// CloneDirectoryName is the directory below the workspace root that holds the clone.
const CloneDirectoryName = "repo"

// Workspace is the per-target execution context steps run in.
type Workspace interface {
	Name() string
	SetWorkingDirectory(relativePath string)
	ScriptCommandLine(scriptInvocation string) string
	RunCommand(executionContext context.Context, commandLine string) (int, error)
	RunCommandSuccessfully(executionContext context.Context, commandLine string) error
	RunGit(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error)
}

// PullRequestSynchronizer publishes the campaign branch of one repository.
type PullRequestSynchronizer interface {
	SyncPullRequest(executionContext context.Context, repository gitrepo.Repository, description forge.PullRequestDescription, existingNumber *int) (forge.PullRequest, error)
}

// Step is one stage of a target pipeline.
type Step interface {
	Name() string
	Run(executionContext context.Context, workspace Workspace) StepOutcome
}

// CloneStep clones the target, resets the campaign branch, and makes a bare push publish that branch.
type CloneStep struct {
	CloneURL   string
	BranchName string
}

// Name returns the step name.
func (step CloneStep) Name() string {
	return StepNameClone
}

// Run clones into CloneDirectoryName and moves the workspace into it.
func (step CloneStep) Run(executionContext context.Context, workspace Workspace) StepOutcome {
	manager, managerError := gitrepo.NewRepositoryManager(workspace)
	if managerError != nil {
		return Failure(step.Name(), UnableToCheckoutRepoError{Cause: managerError})
	}
	if cloneError := manager.Clone(executionContext, step.CloneURL, CloneDirectoryName); cloneError != nil {
		return Failure(step.Name(), UnableToCheckoutRepoError{Cause: cloneError})
	}
	workspace.SetWorkingDirectory(CloneDirectoryName)
	if branchError := manager.ResetBranch(executionContext, step.BranchName); branchError != nil {
		return Failure(step.Name(), UnableToCheckoutRepoError{Cause: branchError})
	}
	if configureError := manager.ConfigurePushToCurrentBranch(executionContext); configureError != nil {
		return Failure(step.Name(), UnableToCheckoutRepoError{Cause: configureError})
	}
	return Continue(step.Name(), nil)
}

// PreFlightStep runs the operator's eligibility check. Its program is resolved against the
// launch directory like migration scripts.
type PreFlightStep struct {
	CommandLine string
}

// Name returns the step name.
func (step PreFlightStep) Name() string {
	return StepNamePreFlight
}

// Run aborts the pipeline when the check exits with a non-zero status.
func (step PreFlightStep) Run(executionContext context.Context, workspace Workspace) StepOutcome {
	exitCode, runError := workspace.RunCommand(executionContext, workspace.ScriptCommandLine(step.CommandLine))
	if runError != nil {
		return Failure(step.Name(), runError)
	}
	if exitCode != 0 {
		return Abort(step.Name(), AbortReasonPreFlight)
	}
	return Continue(step.Name(), nil)
}

// MigrationScriptStep runs one recipe script and requires it to leave a clean working tree.
type MigrationScriptStep struct {
	Definition campaign.Step
}

// Name returns the recipe step name.
func (step MigrationScriptStep) Name() string {
	return step.Definition.Name
}

// Run executes the script and inspects the working tree afterwards.
func (step MigrationScriptStep) Run(executionContext context.Context, workspace Workspace) StepOutcome {
	scriptCommandLine := workspace.ScriptCommandLine(step.Definition.MigrationScript)
	if runError := workspace.RunCommandSuccessfully(executionContext, scriptCommandLine); runError != nil {
		return Failure(step.Name(), MigrationStepErroredError{StepName: step.Name(), Cause: runError})
	}

	manager, managerError := gitrepo.NewRepositoryManager(workspace)
	if managerError != nil {
		return Failure(step.Name(), MigrationStepErroredError{StepName: step.Name(), Cause: managerError})
	}
	changedPaths, statusError := manager.WorkingTreeChanges(executionContext)
	if statusError != nil {
		return Failure(step.Name(), MigrationStepErroredError{StepName: step.Name(), Cause: statusError})
	}
	if len(changedPaths) > 0 {
		return Failure(step.Name(), WorkingDirNotCleanError{StepName: step.Name(), Files: changedPaths})
	}
	return Continue(step.Name(), nil)
}

// PushStep force-pushes the campaign branch with a lease.
type PushStep struct {
	Mode ExecutionMode
}

// Name returns the step name.
func (step PushStep) Name() string {
	return StepNamePush
}

// Run pushes when the execution mode allows it.
func (step PushStep) Run(executionContext context.Context, workspace Workspace) StepOutcome {
	if !step.Mode.PushEnabled() {
		if step.Mode == ExecutionModeDryRun {
			return Abort(step.Name(), AbortReasonDryRun)
		}
		return Abort(step.Name(), AbortReasonPush)
	}

	manager, managerError := gitrepo.NewRepositoryManager(workspace)
	if managerError != nil {
		return Failure(step.Name(), PushFailedError{Cause: managerError})
	}
	if pushError := manager.PushWithLease(executionContext); pushError != nil {
		return Failure(step.Name(), PushFailedError{Cause: pushError})
	}
	return Continue(step.Name(), nil)
}

// PublishStep creates or updates the pull request of the campaign branch.
type PublishStep struct {
	Mode           ExecutionMode
	Synchronizer   PullRequestSynchronizer
	Repository     gitrepo.Repository
	Description    forge.PullRequestDescription
	ExistingNumber *int
}

// Name returns the step name.
func (step PublishStep) Name() string {
	return StepNamePullRequest
}

// Run yields the published pull request as a campaign.PullRequestRecord.
func (step PublishStep) Run(executionContext context.Context, workspace Workspace) StepOutcome {
	if !step.Mode.PublishEnabled() {
		return Abort(step.Name(), AbortReasonPullRequest)
	}
	if step.Synchronizer == nil {
		return Failure(step.Name(), UnableToCreatePullRequestError{Cause: ErrReconcilerNotConfigured})
	}

	pullRequest, syncError := step.Synchronizer.SyncPullRequest(executionContext, step.Repository, step.Description, step.ExistingNumber)
	if syncError != nil {
		return Failure(step.Name(), UnableToCreatePullRequestError{Cause: syncError})
	}
	return Continue(step.Name(), campaign.PullRequestRecord{Number: pullRequest.Number, URL: pullRequest.Permalink})
}
