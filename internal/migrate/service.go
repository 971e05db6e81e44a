package migrate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/filesystem"
	"github.com/temirov/clu/internal/gitrepo"
	"github.com/temirov/clu/internal/pipeline"
	"github.com/temirov/clu/internal/scheduler"
	"github.com/temirov/clu/internal/workspace"
)

// StepNamePrepare labels failures raised before a target's pipeline starts.
const StepNamePrepare = "prepare"

const (
	workDirectoryPermissionsConstant      = 0o755
	loadErrorTemplateConstant             = "unable to load migration definition: %w"
	backupErrorTemplateConstant           = "unable to back up migration definition: %w"
	workDirectoryErrorTemplateConstant    = "unable to create work directory %s: %w"
	pipelineErrorTemplateConstant         = "unable to prepare pipeline: %w"
	saveErrorTemplateConstant             = "unable to save migration state: %w"
	summaryErrorTemplateConstant          = "unable to write error summary: %w"
	logMessageBackupWrittenConstant       = "Backed up migration definition"
	logMessagePullRequestRecordedConstant = "Pull request ready"
	logMessageTargetAbortedConstant       = "Target stopped early"
	logMessageTargetFailedConstant        = "Target failed"
	logMessageTargetCompletedConstant     = "Target completed"
	logMessageRecordFailedConstant        = "Unable to record pull request"
	logMessageErrorSummaryWrittenConstant = "Wrote error summary"
	logMessageRunStartedConstant          = "Starting migration"
	logFieldPathConstant                  = "path"
	logFieldTargetConstant                = "target"
	logFieldStepConstant                  = "step"
	logFieldReasonConstant                = "reason"
	logFieldPullRequestConstant           = "pull_request"
	logFieldModeConstant                  = "mode"
	logFieldTargetCountConstant           = "targets"
	logFieldFailureCountConstant          = "failures"
)

// ServiceDependencies describes the collaborators required by a campaign run.
type ServiceDependencies struct {
	Logger       *zap.Logger
	FileSystem   filesystem.FileSystem
	Executor     workspace.CommandExecutor
	Synchronizer pipeline.PullRequestSynchronizer
	Clock        campaign.Clock
	Tracer       trace.Tracer
	Meter        metric.Meter
}

// RunOptions configures a single campaign run.
type RunOptions struct {
	DefinitionPath   string
	WorkDirectory    string
	ScriptDirectory  string
	ErrorSummaryPath string
	Concurrency      int
	Mode             pipeline.ExecutionMode
}

// RunResult captures the observable outcomes of a campaign run.
type RunResult struct {
	Outcomes            scheduler.Results
	BackupPath          string
	ErrorSummaryPath    string
	ErrorSummaryWritten bool
}

// Failures returns the failure of every target that did not complete.
func (result RunResult) Failures() map[string]error {
	return result.Outcomes.Failures()
}

// Runner executes campaign runs.
type Runner interface {
	Run(executionContext context.Context, options RunOptions) (RunResult, error)
}

// Service orchestrates a campaign run.
type Service struct {
	logger       *zap.Logger
	fileSystem   filesystem.FileSystem
	executor     workspace.CommandExecutor
	synchronizer pipeline.PullRequestSynchronizer
	clock        campaign.Clock
	tracer       trace.Tracer
	meter        metric.Meter
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Executor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:       logger,
		fileSystem:   dependencies.FileSystem,
		executor:     dependencies.Executor,
		synchronizer: dependencies.Synchronizer,
		clock:        dependencies.Clock,
		tracer:       dependencies.Tracer,
		meter:        dependencies.Meter,
	}, nil
}

// Run loads the campaign, backs it up, processes every target, and persists the pull requests it produced.
// Per-target failures are reported in the result; the returned error covers problems with the campaign itself.
func (service *Service) Run(executionContext context.Context, options RunOptions) (RunResult, error) {
	store, storeError := campaign.NewStore(service.fileSystem, options.DefinitionPath, service.clock)
	if storeError != nil {
		return RunResult{}, fmt.Errorf(loadErrorTemplateConstant, storeError)
	}
	state, loadError := store.Load()
	if loadError != nil {
		return RunResult{}, fmt.Errorf(loadErrorTemplateConstant, loadError)
	}
	if validationError := state.Validate(); validationError != nil {
		return RunResult{}, validationError
	}

	migrationPipeline, pipelineError := pipeline.New(state.Definition(), options.Mode, pipeline.Dependencies{
		Synchronizer: service.synchronizer,
		Logger:       service.logger,
		Tracer:       service.tracer,
		Meter:        service.meter,
	})
	if pipelineError != nil {
		return RunResult{}, fmt.Errorf(pipelineErrorTemplateConstant, pipelineError)
	}

	backupPath, backupError := store.Backup()
	if backupError != nil {
		return RunResult{}, fmt.Errorf(backupErrorTemplateConstant, backupError)
	}
	service.logger.Info(logMessageBackupWrittenConstant, zap.String(logFieldPathConstant, backupPath))

	if createError := service.fileSystem.MkdirAll(options.WorkDirectory, workDirectoryPermissionsConstant); createError != nil {
		return RunResult{}, fmt.Errorf(workDirectoryErrorTemplateConstant, options.WorkDirectory, createError)
	}

	targets := state.SortedTargets()
	service.logger.Info(logMessageRunStartedConstant,
		zap.Int(logFieldTargetCountConstant, len(targets)),
		zap.String(logFieldModeConstant, options.Mode.String()),
	)

	workspaceDependencies := workspace.Dependencies{
		FileSystem:      service.fileSystem,
		Executor:        service.executor,
		Logger:          service.logger,
		ScriptDirectory: options.ScriptDirectory,
	}
	tasks := make([]scheduler.Task, 0, len(targets))
	for _, namedTarget := range targets {
		tasks = append(tasks, targetTask(migrationPipeline, workspaceDependencies, options.WorkDirectory, namedTarget))
	}

	outcomes := scheduler.New(options.Concurrency, service.logger).Run(executionContext, tasks)
	service.recordOutcomes(&state, outcomes)

	result := RunResult{Outcomes: outcomes, BackupPath: backupPath, ErrorSummaryPath: options.ErrorSummaryPath}
	if saveError := store.Save(state); saveError != nil {
		return result, fmt.Errorf(saveErrorTemplateConstant, saveError)
	}

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

func targetTask(migrationPipeline *pipeline.Pipeline, dependencies workspace.Dependencies, workDirectory string, namedTarget campaign.NamedTarget) scheduler.Task {
	return scheduler.TaskFunc{
		TaskName: namedTarget.Name,
		Skipped:  namedTarget.Skip,
		Function: func(executionContext context.Context) pipeline.StepOutcome {
			repository, resolveError := gitrepo.ResolveRepository(namedTarget.Repo)
			if resolveError != nil {
				return pipeline.Failure(StepNamePrepare, resolveError)
			}

			targetWorkspace, workspaceError := workspace.New(dependencies, workDirectory, namedTarget.Name, namedTarget.Env)
			if workspaceError != nil {
				return pipeline.Failure(StepNamePrepare, workspaceError)
			}
			defer func() {
				_ = targetWorkspace.Close()
			}()

			return migrationPipeline.Run(executionContext, targetWorkspace, pipeline.Target{
				Name:                namedTarget.Name,
				Repository:          repository,
				ExistingPullRequest: namedTarget.PullRequest,
			})
		},
	}
}

func (service *Service) recordOutcomes(state *campaign.State, outcomes scheduler.Results) {
	for _, name := range outcomes.Names() {
		switch outcome := outcomes[name].(type) {
		case pipeline.ContinueOutcome:
			record, isRecord := outcome.Value.(campaign.PullRequestRecord)
			if !isRecord {
				service.logger.Info(logMessageTargetCompletedConstant, zap.String(logFieldTargetConstant, name))
				continue
			}
			if recordError := state.RecordPullRequest(name, record); recordError != nil {
				service.logger.Warn(logMessageRecordFailedConstant, zap.String(logFieldTargetConstant, name), zap.Error(recordError))
				continue
			}
			service.logger.Info(logMessagePullRequestRecordedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldPullRequestConstant, record.URL),
			)
		case pipeline.AbortOutcome:
			service.logger.Info(logMessageTargetAbortedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldStepConstant, outcome.Step),
				zap.String(logFieldReasonConstant, outcome.Reason),
			)
		case pipeline.FailureOutcome:
			service.logger.Warn(logMessageTargetFailedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldStepConstant, outcome.Step),
				zap.Error(outcome.Cause),
			)
		}
	}
}
