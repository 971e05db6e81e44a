package campaign

import (
	"fmt"
	"sort"
	"strings"
)

const (
	exampleBranchNameConstant       = "clu/example-migration"
	examplePreFlightConstant        = "/usr/bin/true"
	examplePullRequestTitleConstant = "Example migration"
	examplePullRequestBodyConstant  = "Describe the change here.\n\nMultiple paragraphs are kept as written."
	exampleStepNameConstant         = "Example"
	exampleStepScriptConstant       = "examples/example-migration.sh"
	exampleTargetNameConstant       = "dummy-repo"
	exampleTargetRepoConstant       = "git@github.com:example/dummy-repo.git"

	problemMissingBranchConstant             = "checkout.branch-name is empty"
	problemMissingPreFlightConstant          = "checkout.pre-flight is empty"
	problemMissingScriptTemplateConstant     = "steps[%d] (%s) has no migration-script"
	problemMissingRepoTemplateConstant       = "targets.%s has no repo"
	problemInvalidTargetNameTemplateConstant = "target name %q cannot be used as a directory name"
)

// Checkout describes the branch every target is migrated on and the gate that decides whether a target is eligible.
type Checkout struct {
	BranchName string `toml:"branch-name"`
	PreFlight  string `toml:"pre-flight"`
}

// PullRequestTemplate holds the title and body applied to every published pull request.
type PullRequestTemplate struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// Step is one mutation script run inside each target repository.
type Step struct {
	Name            string `toml:"name"`
	MigrationScript string `toml:"migration-script"`
}

// PullRequestRecord is the pull request a previous run published for a target.
type PullRequestRecord struct {
	Number int    `toml:"pr_number"`
	URL    string `toml:"url"`
}

// Target is one repository the campaign applies to.
type Target struct {
	Repo        string             `toml:"repo"`
	Skip        bool               `toml:"skip,omitempty"`
	Env         map[string]string  `toml:"env,inline,omitempty"`
	PullRequest *PullRequestRecord `toml:"pull-request,inline,omitempty"`
}

// NamedTarget pairs a target with the key it is stored under.
type NamedTarget struct {
	Name string
	Target
}

// Definition is the read-only recipe shared by every pipeline of a run.
type Definition struct {
	Checkout    Checkout
	PullRequest PullRequestTemplate
	Steps       []Step
}

// State is the campaign file: the recipe plus every target and its remembered pull request.
type State struct {
	Checkout    Checkout            `toml:"checkout"`
	PullRequest PullRequestTemplate `toml:"pr"`
	Steps       []Step              `toml:"steps"`
	Targets     map[string]Target   `toml:"targets"`
}

// Definition returns a copy of the recipe portion of the state.
func (state State) Definition() Definition {
	return Definition{
		Checkout:    state.Checkout,
		PullRequest: state.PullRequest,
		Steps:       append([]Step{}, state.Steps...),
	}
}

// SortedTargets lists the targets ordered by name.
func (state State) SortedTargets() []NamedTarget {
	names := make([]string, 0, len(state.Targets))
	for name := range state.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	namedTargets := make([]NamedTarget, 0, len(names))
	for _, name := range names {
		namedTargets = append(namedTargets, NamedTarget{Name: name, Target: state.Targets[name]})
	}
	return namedTargets
}

// RecordPullRequest replaces the remembered pull request of the named target.
func (state *State) RecordPullRequest(name string, record PullRequestRecord) error {
	target, exists := state.Targets[name]
	if !exists {
		return UnknownTargetError{Name: name}
	}
	recorded := record
	target.PullRequest = &recorded
	state.Targets[name] = target
	return nil
}

// Validate reports every problem that would prevent the campaign from running.
func (state State) Validate() error {
	problems := make([]string, 0)
	if len(strings.TrimSpace(state.Checkout.BranchName)) == 0 {
		problems = append(problems, problemMissingBranchConstant)
	}
	if len(strings.TrimSpace(state.Checkout.PreFlight)) == 0 {
		problems = append(problems, problemMissingPreFlightConstant)
	}
	for stepIndex, step := range state.Steps {
		if len(strings.TrimSpace(step.MigrationScript)) == 0 {
			problems = append(problems, fmt.Sprintf(problemMissingScriptTemplateConstant, stepIndex, step.Name))
		}
	}
	for _, namedTarget := range state.SortedTargets() {
		if !isDirectorySafeName(namedTarget.Name) {
			problems = append(problems, fmt.Sprintf(problemInvalidTargetNameTemplateConstant, namedTarget.Name))
		}
		if len(strings.TrimSpace(namedTarget.Repo)) == 0 {
			problems = append(problems, fmt.Sprintf(problemMissingRepoTemplateConstant, namedTarget.Name))
		}
	}
	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

// ExampleState returns the starter campaign written by the init command.
func ExampleState() State {
	return State{
		Checkout: Checkout{
			BranchName: exampleBranchNameConstant,
			PreFlight:  examplePreFlightConstant,
		},
		PullRequest: PullRequestTemplate{
			Title:       examplePullRequestTitleConstant,
			Description: examplePullRequestBodyConstant,
		},
		Steps: []Step{
			{Name: exampleStepNameConstant, MigrationScript: exampleStepScriptConstant},
		},
		Targets: map[string]Target{
			exampleTargetNameConstant: {Repo: exampleTargetRepoConstant},
		},
	}
}

func isDirectorySafeName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 || trimmed == "." || trimmed == ".." {
		return false
	}
	return !strings.ContainsAny(trimmed, `/\`)
}
