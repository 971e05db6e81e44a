package followup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
	"github.com/temirov/clu/internal/pipeline"
	"github.com/temirov/clu/internal/scheduler"
	"github.com/temirov/clu/internal/status"
	"github.com/temirov/clu/internal/workspace"
)

// Names of the follow-up stages reported in outcomes.
const (
	StepNameResolve   = "invalid-url"
	StepNameStatus    = "no-pull-request"
	StepNameWorkspace = "workspace"
	StepNameFollowUp  = "follow-up"
)

// Environment variables exposed to the follow-up script.
const (
	PullRequestURLEnvironmentVariable = "CLU_PULL_REQUEST_URL"
	CloneURLEnvironmentVariable       = "CLU_CLONE_URL"
)

const (
	workDirectoryPermissionsConstant      = 0o755
	loadErrorTemplateConstant             = "unable to load migration definition: %w"
	workDirectoryErrorTemplateConstant    = "unable to create work directory %s: %w"
	summaryErrorTemplateConstant          = "unable to write error summary: %w"
	logMessageFollowUpSucceededConstant   = "ran follow up successfully"
	logMessageFollowUpSkippedConstant     = "did not run follow up"
	logMessageFollowUpFailedConstant      = "did not run follow-up successfully"
	logMessageErrorSummaryWrittenConstant = "Wrote error summary"
	logMessageRunStartedConstant          = "Starting follow-up"
	logFieldTargetConstant                = "target"
	logFieldStepConstant                  = "step"
	logFieldReasonConstant                = "reason"
	logFieldPathConstant                  = "path"
	logFieldTargetCountConstant           = "targets"
	logFieldFailureCountConstant          = "failures"
)

// ServiceDependencies describes the collaborators required by a follow-up run.
type ServiceDependencies struct {
	Logger     *zap.Logger
	FileSystem filesystem.FileSystem
	Executor   workspace.CommandExecutor
	Reader     status.StatusReader
}

// RunOptions configures a single follow-up run.
type RunOptions struct {
	DefinitionPath   string
	WorkDirectory    string
	ScriptDirectory  string
	Script           string
	ErrorSummaryPath string
	Concurrency      int
}

// RunResult captures the observable outcomes of a follow-up run.
type RunResult struct {
	Outcomes            scheduler.Results
	ErrorSummaryWritten bool
}

// Failures returns the failure of every target whose script did not complete.
func (result RunResult) Failures() map[string]error {
	return result.Outcomes.Failures()
}

// Runner executes follow-up runs.
type Runner interface {
	Run(executionContext context.Context, options RunOptions) (RunResult, error)
}

// Service runs a script against every unmerged campaign pull request.
type Service struct {
	logger     *zap.Logger
	fileSystem filesystem.FileSystem
	executor   workspace.CommandExecutor
	reader     status.StatusReader
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Executor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	if dependencies.Reader == nil {
		return nil, ErrStatusReaderNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:     logger,
		fileSystem: dependencies.FileSystem,
		executor:   dependencies.Executor,
		reader:     dependencies.Reader,
	}, nil
}

// Run loads the campaign and runs the script for every target with a recorded pull request.
// The campaign file is left untouched.
func (service *Service) Run(executionContext context.Context, options RunOptions) (RunResult, error) {
	if len(strings.TrimSpace(options.Script)) == 0 {
		return RunResult{}, ErrScriptRequired
	}

	store, storeError := campaign.NewStore(service.fileSystem, options.DefinitionPath, nil)
	if storeError != nil {
		return RunResult{}, fmt.Errorf(loadErrorTemplateConstant, storeError)
	}
	state, loadError := store.Load()
	if loadError != nil {
		return RunResult{}, fmt.Errorf(loadErrorTemplateConstant, loadError)
	}

	if createError := service.fileSystem.MkdirAll(options.WorkDirectory, workDirectoryPermissionsConstant); createError != nil {
		return RunResult{}, fmt.Errorf(workDirectoryErrorTemplateConstant, options.WorkDirectory, createError)
	}

	workspaceDependencies := workspace.Dependencies{
		FileSystem:      service.fileSystem,
		Executor:        service.executor,
		Logger:          service.logger,
		ScriptDirectory: options.ScriptDirectory,
	}
	tasks := make([]scheduler.Task, 0, len(state.Targets))
	for _, namedTarget := range state.SortedTargets() {
		if namedTarget.PullRequest == nil {
			continue
		}
		tasks = append(tasks, service.followUpTask(workspaceDependencies, options, namedTarget))
	}
	service.logger.Info(logMessageRunStartedConstant, zap.Int(logFieldTargetCountConstant, len(tasks)))

	outcomes := scheduler.New(options.Concurrency, service.logger).Run(executionContext, tasks)
	service.logOutcomes(outcomes)

	result := RunResult{Outcomes: outcomes}
	summary, summaryError := campaign.NewErrorSummary(service.fileSystem, options.ErrorSummaryPath)
	if summaryError != nil {
		return result, fmt.Errorf(summaryErrorTemplateConstant, summaryError)
	}
	failures := outcomes.Failures()
	written, writeError := summary.Write(failures)
	if writeError != nil {
		return result, fmt.Errorf(summaryErrorTemplateConstant, writeError)
	}
	result.ErrorSummaryWritten = written
	if written {
		service.logger.Warn(logMessageErrorSummaryWrittenConstant,
			zap.String(logFieldPathConstant, summary.Path()),
			zap.Int(logFieldFailureCountConstant, len(failures)),
		)
	}
	return result, nil
}

func (service *Service) followUpTask(dependencies workspace.Dependencies, options RunOptions, namedTarget campaign.NamedTarget) scheduler.Task {
	pullRequestNumber := namedTarget.PullRequest.Number
	return scheduler.TaskFunc{
		TaskName: namedTarget.Name,
		Skipped:  namedTarget.Skip,
		Function: func(executionContext context.Context) pipeline.StepOutcome {
			repository, resolveError := gitrepo.ResolveRepository(namedTarget.Repo)
			if resolveError != nil {
				return pipeline.Failure(StepNameResolve, resolveError)
			}

			pullState, statusError := service.reader.PullRequestStatus(executionContext, repository, pullRequestNumber)
			if statusError != nil {
				return pipeline.Failure(StepNameStatus, statusError)
			}
			if pullState.Status == forge.PullStatusMerged {
				return pipeline.Abort(StepNameStatus, pipeline.AbortReasonMerged)
			}

			environment := make(map[string]string, len(namedTarget.Env)+2)
			for environmentKey, environmentValue := range namedTarget.Env {
				environment[environmentKey] = environmentValue
			}
			environment[PullRequestURLEnvironmentVariable] = pullState.Permalink
			environment[CloneURLEnvironmentVariable] = namedTarget.Repo

			targetWorkspace, workspaceError := workspace.New(dependencies, options.WorkDirectory, namedTarget.Name, environment)
			if workspaceError != nil {
				return pipeline.Failure(StepNameWorkspace, workspaceError)
			}
			defer func() {
				_ = targetWorkspace.Close()
			}()

			scriptCommandLine := targetWorkspace.ScriptCommandLine(options.Script)
			if runError := targetWorkspace.RunCommandSuccessfully(executionContext, scriptCommandLine); runError != nil {
				return pipeline.Failure(StepNameFollowUp, runError)
			}
			return pipeline.Continue(StepNameFollowUp, pullState)
		},
	}
}

func (service *Service) logOutcomes(outcomes scheduler.Results) {
	for _, name := range outcomes.Names() {
		switch outcome := outcomes[name].(type) {
		case pipeline.ContinueOutcome:
			service.logger.Info(logMessageFollowUpSucceededConstant, zap.String(logFieldTargetConstant, name))
		case pipeline.AbortOutcome:
			service.logger.Info(logMessageFollowUpSkippedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldStepConstant, outcome.Step),
				zap.String(logFieldReasonConstant, outcome.Reason),
			)
		case pipeline.FailureOutcome:
			service.logger.Warn(logMessageFollowUpFailedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldStepConstant, outcome.Step),
				zap.Error(outcome.Cause),
			)
		}
	}
}
