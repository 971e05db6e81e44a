package pipeline

// ExecutionMode decides how far a pipeline goes after the migration steps.
type ExecutionMode int

// Execution modes.
const (
	ExecutionModeFull ExecutionMode = iota
	ExecutionModeDryRun
	ExecutionModeSkipPush
	ExecutionModeSkipPullRequest
)

var executionModeNames = map[ExecutionMode]string{
	ExecutionModeFull:            "full",
	ExecutionModeDryRun:          "dry-run",
	ExecutionModeSkipPush:        "skip-push",
	ExecutionModeSkipPullRequest: "skip-pull-request",
}

// ResolveExecutionMode turns the command-line switches into a mode. At most one switch may be set.
func ResolveExecutionMode(dryRun bool, skipPush bool, skipPullRequest bool) (ExecutionMode, error) {
	selected := make([]ExecutionMode, 0, 3)
	if dryRun {
		selected = append(selected, ExecutionModeDryRun)
	}
	if skipPush {
		selected = append(selected, ExecutionModeSkipPush)
	}
	if skipPullRequest {
		selected = append(selected, ExecutionModeSkipPullRequest)
	}

	switch len(selected) {
	case 0:
		return ExecutionModeFull, nil
	case 1:
		return selected[0], nil
	default:
		names := make([]string, 0, len(selected))
		for _, mode := range selected {
			names = append(names, mode.String())
		}
		return ExecutionModeFull, ConflictingExecutionModesError{Modes: names}
	}
}

// String returns the flag-style name of the mode.
func (mode ExecutionMode) String() string {
	if name, known := executionModeNames[mode]; known {
		return name
	}
	return executionModeNames[ExecutionModeFull]
}

// PushEnabled reports whether the push step runs.
func (mode ExecutionMode) PushEnabled() bool {
	return mode == ExecutionModeFull || mode == ExecutionModeSkipPullRequest
}

// PublishEnabled reports whether the publish step talks to the forge.
func (mode ExecutionMode) PublishEnabled() bool {
	return mode == ExecutionModeFull
}
