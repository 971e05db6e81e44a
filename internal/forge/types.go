package forge

import (
	"context"

	"github.com/temirov/clu/internal/gitrepo"
)

// PullRequestState mirrors the lifecycle state reported by the forge.
type PullRequestState string

// Pull request lifecycle states.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("OPEN")
	PullRequestStateClosed PullRequestState = PullRequestState("CLOSED")
	PullRequestStateMerged PullRequestState = PullRequestState("MERGED")
)

// MergeableState mirrors the forge's own mergeability computation.
type MergeableState string

// Mergeability states.
const (
	MergeableStateMergeable   MergeableState = MergeableState("MERGEABLE")
	MergeableStateConflicting MergeableState = MergeableState("CONFLICTING")
	MergeableStateUnknown     MergeableState = MergeableState("UNKNOWN")
)

// CheckRollupState is the combined status of every check and status on a commit.
type CheckRollupState string

// Check rollup states. CheckRollupStateMissing marks a commit without rollup information.
const (
	CheckRollupStateMissing  CheckRollupState = CheckRollupState("")
	CheckRollupStateSuccess  CheckRollupState = CheckRollupState("SUCCESS")
	CheckRollupStatePending  CheckRollupState = CheckRollupState("PENDING")
	CheckRollupStateExpected CheckRollupState = CheckRollupState("EXPECTED")
	CheckRollupStateFailure  CheckRollupState = CheckRollupState("FAILURE")
	CheckRollupStateError    CheckRollupState = CheckRollupState("ERROR")
)

// ReviewDecision summarizes the review requirements of a pull request.
type ReviewDecision string

// Review decisions. ReviewDecisionNone means the repository requires no review.
const (
	ReviewDecisionNone             ReviewDecision = ReviewDecision("")
	ReviewDecisionApproved         ReviewDecision = ReviewDecision("APPROVED")
	ReviewDecisionReviewRequired   ReviewDecision = ReviewDecision("REVIEW_REQUIRED")
	ReviewDecisionChangesRequested ReviewDecision = ReviewDecision("CHANGES_REQUESTED")
)

// PullRequestSnapshot captures the signals used to reconcile and classify a pull request.
type PullRequestSnapshot struct {
	NodeID         string
	Number         int
	Permalink      string
	State          PullRequestState
	Merged         bool
	Mergeable      MergeableState
	HasCommits     bool
	CheckRollup    CheckRollupState
	ReviewDecision ReviewDecision
}

// IsOpen reports whether the pull request still accepts updates.
func (snapshot PullRequestSnapshot) IsOpen() bool {
	return snapshot.State == PullRequestStateOpen
}

// RepositoryDetails carries the repository identity needed to open a pull request.
type RepositoryDetails struct {
	NodeID        string
	DefaultBranch string
}

// PullRequestDescription is the branch and text of a pull request.
type PullRequestDescription struct {
	HeadBranch string
	Title      string
	Body       string
}

// PullRequest identifies a created or updated pull request.
type PullRequest struct {
	Number    int
	Permalink string
}

// Client is the behavioral contract required from a forge backend.
type Client interface {
	// FetchPullRequest returns the current state of a pull request.
	FetchPullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (PullRequestSnapshot, error)
	// FetchPullRequestState returns only the identity and lifecycle fields of a pull request:
	// NodeID, Number, Permalink, State, and Merged. Check and review signals are left unset.
	FetchPullRequestState(executionContext context.Context, repository gitrepo.Repository, number int) (PullRequestSnapshot, error)
	// FetchRepository returns the identity and default branch of a repository.
	FetchRepository(executionContext context.Context, repository gitrepo.Repository) (RepositoryDetails, error)
	// CreatePullRequest opens a pull request from description.HeadBranch into details.DefaultBranch.
	CreatePullRequest(executionContext context.Context, repository gitrepo.Repository, details RepositoryDetails, description PullRequestDescription) (PullRequest, error)
	// UpdatePullRequest replaces the title and body of an open pull request.
	UpdatePullRequest(executionContext context.Context, repository gitrepo.Repository, existing PullRequestSnapshot, description PullRequestDescription) (PullRequest, error)
}
