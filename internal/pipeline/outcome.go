package pipeline

// OutcomeKind names the variant of a StepOutcome.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeKindContinue OutcomeKind = OutcomeKind("continue")
	OutcomeKindAbort    OutcomeKind = OutcomeKind("abort")
	OutcomeKindFailure  OutcomeKind = OutcomeKind("failure")
)

// Abort reasons reported by the built-in steps and the scheduler.
const (
	AbortReasonSkip        = "skip"
	AbortReasonPreFlight   = "pre-flight"
	AbortReasonPush        = "push"
	AbortReasonDryRun      = "dry-run"
	AbortReasonPullRequest = "pull-request"
	AbortReasonMerged      = "merged"
)

// StepOutcome is the result of one step: ContinueOutcome, AbortOutcome, or FailureOutcome.
type StepOutcome interface {
	StepName() string
	Kind() OutcomeKind
	stepOutcome()
}

// ContinueOutcome lets the pipeline proceed. Value carries the step's product, if any.
type ContinueOutcome struct {
	Step  string
	Value any
}

// AbortOutcome stops the pipeline without an error.
type AbortOutcome struct {
	Step   string
	Reason string
}

// FailureOutcome stops the pipeline with an error.
type FailureOutcome struct {
	Step  string
	Cause error
}

// Continue builds a ContinueOutcome.
func Continue(step string, value any) StepOutcome {
	return ContinueOutcome{Step: step, Value: value}
}

// Abort builds an AbortOutcome.
func Abort(step string, reason string) StepOutcome {
	return AbortOutcome{Step: step, Reason: reason}
}

// Failure builds a FailureOutcome.
func Failure(step string, cause error) StepOutcome {
	return FailureOutcome{Step: step, Cause: cause}
}

func (outcome ContinueOutcome) StepName() string  { return outcome.Step }
func (outcome ContinueOutcome) Kind() OutcomeKind { return OutcomeKindContinue }
func (ContinueOutcome) stepOutcome()              {}

func (outcome AbortOutcome) StepName() string  { return outcome.Step }
func (outcome AbortOutcome) Kind() OutcomeKind { return OutcomeKindAbort }
func (AbortOutcome) stepOutcome()              {}

func (outcome FailureOutcome) StepName() string  { return outcome.Step }
func (outcome FailureOutcome) Kind() OutcomeKind { return OutcomeKindFailure }
func (FailureOutcome) stepOutcome()              {}

// Error describes the failure with the step it happened in.
func (outcome FailureOutcome) Error() string {
	if outcome.Cause == nil {
		return outcome.Step
	}
	return outcome.Step + ": " + outcome.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (outcome FailureOutcome) Unwrap() error {
	return outcome.Cause
}
