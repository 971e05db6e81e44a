package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/clu/internal/pipeline"
)

// DefaultConcurrency bounds the number of targets processed at once.
const DefaultConcurrency = 3

// StepNameScheduler labels outcomes produced by the scheduler itself.
const StepNameScheduler = "scheduler"

const (
	taskPanicTemplateConstant      = "task panicked: %v"
	nilOutcomeMessageConstant      = "task returned no outcome"
	logMessageTaskSkippedConstant  = "target skipped"
	logMessageTaskStartedConstant  = "target started"
	logMessageTaskFinishedConstant = "target finished"
	logFieldTargetConstant         = "target"
	logFieldOutcomeConstant        = "outcome"
	logFieldStepConstant           = "step"
	logFieldConcurrencyConstant    = "concurrency"
	logMessageSchedulingConstant   = "scheduling targets"
	logFieldTaskCountConstant      = "tasks"
)

// ErrNilOutcome indicates a task finished without reporting an outcome.
var ErrNilOutcome = errors.New(nilOutcomeMessageConstant)

// PanicError reports a task that panicked.
type PanicError struct {
	Value any
}

// Error describes the recovered value.
func (panicError PanicError) Error() string {
	return fmt.Sprintf(taskPanicTemplateConstant, panicError.Value)
}

// Task is the unit of work for one target.
type Task interface {
	Name() string
	Skip() bool
	Run(executionContext context.Context) pipeline.StepOutcome
}

// TaskFunc adapts a function into a Task.
type TaskFunc struct {
	TaskName string
	Skipped  bool
	Function func(executionContext context.Context) pipeline.StepOutcome
}

// Name returns the target name.
func (task TaskFunc) Name() string {
	return task.TaskName
}

// Skip reports whether the target is excluded.
func (task TaskFunc) Skip() bool {
	return task.Skipped
}

// Run invokes the function.
func (task TaskFunc) Run(executionContext context.Context) pipeline.StepOutcome {
	return task.Function(executionContext)
}

// Results maps target names to their final outcome.
type Results map[string]pipeline.StepOutcome

// Names lists the targets in the results ordered by name.
func (results Results) Names() []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failures collects the cause of every failed target.
func (results Results) Failures() map[string]error {
	failures := make(map[string]error)
	for name, outcome := range results {
		if failure, failed := outcome.(pipeline.FailureOutcome); failed {
			failures[name] = failure
		}
	}
	return failures
}

// Scheduler runs tasks with bounded concurrency.
type Scheduler struct {
	concurrency int
	logger      *zap.Logger
}

// New constructs a Scheduler. Concurrency below one falls back to DefaultConcurrency.
func New(concurrency int, logger *zap.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{concurrency: concurrency, logger: logger}
}

// Concurrency returns the effective task bound.
func (scheduler *Scheduler) Concurrency() int {
	return scheduler.concurrency
}

// Run executes every task that is not skipped and returns one outcome per task name.
// Skipped tasks are recorded as Abort("skip") without being invoked. Run never fails:
// panics and missing outcomes are recorded as Failure entries.
func (scheduler *Scheduler) Run(executionContext context.Context, tasks []Task) Results {
	results := make(Results, len(tasks))
	var resultsMutex sync.Mutex
	record := func(name string, outcome pipeline.StepOutcome) {
		resultsMutex.Lock()
		defer resultsMutex.Unlock()
		results[name] = outcome
	}

	scheduler.logger.Debug(logMessageSchedulingConstant,
		zap.Int(logFieldTaskCountConstant, len(tasks)),
		zap.Int(logFieldConcurrencyConstant, scheduler.concurrency),
	)

	var group errgroup.Group
	group.SetLimit(scheduler.concurrency)
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if task.Skip() {
			scheduler.logger.Info(logMessageTaskSkippedConstant, zap.String(logFieldTargetConstant, task.Name()))
			record(task.Name(), pipeline.Abort(StepNameScheduler, pipeline.AbortReasonSkip))
			continue
		}

		scheduledTask := task
		group.Go(func() error {
			outcome := scheduler.runTask(executionContext, scheduledTask)
			record(scheduledTask.Name(), outcome)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (scheduler *Scheduler) runTask(executionContext context.Context, task Task) (outcome pipeline.StepOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = pipeline.Failure(StepNameScheduler, PanicError{Value: recovered})
		}
		scheduler.logger.Debug(logMessageTaskFinishedConstant,
			zap.String(logFieldTargetConstant, task.Name()),
			zap.String(logFieldOutcomeConstant, string(outcome.Kind())),
			zap.String(logFieldStepConstant, outcome.StepName()),
		)
	}()

	scheduler.logger.Debug(logMessageTaskStartedConstant, zap.String(logFieldTargetConstant, task.Name()))
	outcome = task.Run(executionContext)
	if outcome == nil {
		outcome = pipeline.Failure(StepNameScheduler, ErrNilOutcome)
	}
	return outcome
}
