package status

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
	"github.com/temirov/clu/internal/pipeline"
	"github.com/temirov/clu/internal/scheduler"
)

// StepNameStatus labels outcomes of pull request lookups.
const StepNameStatus = "status"

const (
	logMessagePullRequestClassifiedConstant = "Pull request classified"
	logMessageLookupFailedConstant          = "Unable to classify pull request"
	logFieldTargetConstant                  = "target"
	logFieldStatusConstant                  = "status"
	logFieldPermalinkConstant               = "permalink"
)

// StatusReader fetches and classifies one pull request.
type StatusReader interface {
	PullRequestStatus(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullState, error)
}

// Service classifies the pull requests recorded in a campaign.
type Service struct {
	reader      StatusReader
	logger      *zap.Logger
	concurrency int
}

// NewService constructs a Service. Concurrency below one falls back to the scheduler default.
func NewService(reader StatusReader, logger *zap.Logger, concurrency int) (*Service, error) {
	if reader == nil {
		return nil, ErrStatusReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reader: reader, logger: logger, concurrency: concurrency}, nil
}

// Collect classifies every non-skipped target that has a recorded pull request.
func (service *Service) Collect(executionContext context.Context, state campaign.State) Report {
	tasks := make([]scheduler.Task, 0, len(state.Targets))
	for _, namedTarget := range state.SortedTargets() {
		if namedTarget.PullRequest == nil {
			continue
		}
		tasks = append(tasks, service.statusTask(namedTarget))
	}

	outcomes := scheduler.New(service.concurrency, service.logger).Run(executionContext, tasks)

	report := NewReport()
	for _, name := range outcomes.Names() {
		switch outcome := outcomes[name].(type) {
		case pipeline.ContinueOutcome:
			pullState, isPullState := outcome.Value.(forge.PullState)
			if !isPullState {
				continue
			}
			report.Add(pullState)
			service.logger.Debug(logMessagePullRequestClassifiedConstant,
				zap.String(logFieldTargetConstant, name),
				zap.String(logFieldStatusConstant, pullState.Status.String()),
				zap.String(logFieldPermalinkConstant, pullState.Permalink),
			)
		case pipeline.FailureOutcome:
			report.Failures[name] = outcome
			service.logger.Warn(logMessageLookupFailedConstant, zap.String(logFieldTargetConstant, name), zap.Error(outcome.Cause))
		}
	}
	return report
}

func (service *Service) statusTask(namedTarget campaign.NamedTarget) scheduler.Task {
	pullRequestNumber := namedTarget.PullRequest.Number
	return scheduler.TaskFunc{
		TaskName: namedTarget.Name,
		Skipped:  namedTarget.Skip,
		Function: func(executionContext context.Context) pipeline.StepOutcome {
			repository, resolveError := gitrepo.ResolveRepository(namedTarget.Repo)
			if resolveError != nil {
				return pipeline.Failure(StepNameStatus, resolveError)
			}
			pullState, statusError := service.reader.PullRequestStatus(executionContext, repository, pullRequestNumber)
			if statusError != nil {
				return pipeline.Failure(StepNameStatus, statusError)
			}
			return pipeline.Continue(StepNameStatus, pullState)
		},
	}
}
