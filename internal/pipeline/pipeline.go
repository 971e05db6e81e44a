package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
	"github.com/temirov/clu/internal/telemetry"
)

const (
	targetSpanNameConstant            = "clu.target"
	stepSpanNamePrefixConstant        = "clu.step."
	outcomeCounterNameConstant        = "clu.pipeline.outcomes"
	outcomeCounterDescriptionConstant = "Pipeline outcomes by kind and final step"
	attributeTargetConstant           = "clu.target"
	attributeStepConstant             = "clu.step"
	attributeOutcomeConstant          = "clu.outcome"
	attributeReasonConstant           = "clu.abort_reason"
	logMessageStepFinishedConstant    = "pipeline step finished"
	logFieldTargetConstant            = "target"
	logFieldStepConstant              = "step"
	logFieldOutcomeConstant           = "outcome"
)

// Target is the per-target input of a pipeline run.
type Target struct {
	Name                string
	Repository          gitrepo.Repository
	ExistingPullRequest *campaign.PullRequestRecord
}

// Dependencies configures the collaborators shared by every pipeline run.
type Dependencies struct {
	Synchronizer PullRequestSynchronizer
	Logger       *zap.Logger
	Tracer       trace.Tracer
	Meter        metric.Meter
}

// Pipeline runs Clone, PreFlight, the migration steps, Push, and Publish against one workspace.
type Pipeline struct {
	definition     campaign.Definition
	mode           ExecutionMode
	synchronizer   PullRequestSynchronizer
	logger         *zap.Logger
	tracer         trace.Tracer
	outcomeCounter metric.Int64Counter
}

// New constructs a Pipeline for definition. A synchronizer is required only when mode publishes.
func New(definition campaign.Definition, mode ExecutionMode, dependencies Dependencies) (*Pipeline, error) {
	if mode.PublishEnabled() && dependencies.Synchronizer == nil {
		return nil, ErrReconcilerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := dependencies.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	meter := dependencies.Meter
	if meter == nil {
		meter = telemetry.Meter()
	}
	outcomeCounter, counterError := meter.Int64Counter(outcomeCounterNameConstant, metric.WithDescription(outcomeCounterDescriptionConstant))
	if counterError != nil {
		return nil, counterError
	}

	return &Pipeline{
		definition:     definition,
		mode:           mode,
		synchronizer:   dependencies.Synchronizer,
		logger:         logger,
		tracer:         tracer,
		outcomeCounter: outcomeCounter,
	}, nil
}

// Mode returns the execution mode the pipeline was built for.
func (pipeline *Pipeline) Mode() ExecutionMode {
	return pipeline.mode
}

// Steps lists the steps for target in execution order.
func (pipeline *Pipeline) Steps(target Target) []Step {
	steps := make([]Step, 0, len(pipeline.definition.Steps)+4)
	steps = append(steps,
		CloneStep{CloneURL: target.Repository.CloneURL, BranchName: pipeline.definition.Checkout.BranchName},
		PreFlightStep{CommandLine: pipeline.definition.Checkout.PreFlight},
	)
	for _, definitionStep := range pipeline.definition.Steps {
		steps = append(steps, MigrationScriptStep{Definition: definitionStep})
	}

	var existingNumber *int
	if target.ExistingPullRequest != nil {
		number := target.ExistingPullRequest.Number
		existingNumber = &number
	}
	steps = append(steps,
		PushStep{Mode: pipeline.mode},
		PublishStep{
			Mode:         pipeline.mode,
			Synchronizer: pipeline.synchronizer,
			Repository:   target.Repository,
			Description: forge.PullRequestDescription{
				HeadBranch: pipeline.definition.Checkout.BranchName,
				Title:      pipeline.definition.PullRequest.Title,
				Body:       pipeline.definition.PullRequest.Description,
			},
			ExistingNumber: existingNumber,
		},
	)
	return steps
}

// Run executes the steps for target in order and returns the first outcome that is not a Continue,
// or the Publish outcome when every step continues.
func (pipeline *Pipeline) Run(executionContext context.Context, workspace Workspace, target Target) StepOutcome {
	targetContext, targetSpan := pipeline.tracer.Start(executionContext, targetSpanNameConstant,
		trace.WithAttributes(attribute.String(attributeTargetConstant, target.Name)))
	defer targetSpan.End()

	var outcome StepOutcome
	for _, step := range pipeline.Steps(target) {
		outcome = pipeline.runStep(targetContext, workspace, target, step)
		if _, proceed := outcome.(ContinueOutcome); !proceed {
			break
		}
	}

	annotateSpan(targetSpan, outcome)
	pipeline.outcomeCounter.Add(targetContext, 1, metric.WithAttributes(
		attribute.String(attributeOutcomeConstant, string(outcome.Kind())),
		attribute.String(attributeStepConstant, outcome.StepName()),
	))
	return outcome
}

func (pipeline *Pipeline) runStep(executionContext context.Context, workspace Workspace, target Target, step Step) StepOutcome {
	stepContext, stepSpan := pipeline.tracer.Start(executionContext, stepSpanNamePrefixConstant+step.Name(),
		trace.WithAttributes(
			attribute.String(attributeTargetConstant, target.Name),
			attribute.String(attributeStepConstant, step.Name()),
		))
	defer stepSpan.End()

	var outcome StepOutcome
	if contextError := stepContext.Err(); contextError != nil {
		outcome = Failure(step.Name(), contextError)
	} else {
		outcome = step.Run(stepContext, workspace)
	}

	annotateSpan(stepSpan, outcome)
	pipeline.logger.Debug(logMessageStepFinishedConstant,
		zap.String(logFieldTargetConstant, target.Name),
		zap.String(logFieldStepConstant, step.Name()),
		zap.String(logFieldOutcomeConstant, string(outcome.Kind())),
	)
	return outcome
}

func annotateSpan(span trace.Span, outcome StepOutcome) {
	span.SetAttributes(attribute.String(attributeOutcomeConstant, string(outcome.Kind())))
	switch typedOutcome := outcome.(type) {
	case AbortOutcome:
		span.SetAttributes(attribute.String(attributeReasonConstant, typedOutcome.Reason))
	case FailureOutcome:
		span.RecordError(typedOutcome.Cause)
		span.SetStatus(codes.Error, typedOutcome.Error())
	}
}
