package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
)

const (
	tokenNotConfiguredMessageConstant = "github api token not configured"
	invalidBaseURLTemplateConstant    = "invalid github api base url %q: %w"
	requestErrorTemplateConstant      = "%s %s: %w"
	trailingSlashConstant             = "/"

	githubStateOpenConstant            = "open"
	githubStatusSuccessConstant        = "success"
	githubStatusPendingConstant        = "pending"
	githubStatusErrorConstant          = "error"
	githubCheckStatusCompletedConstant = "completed"
	githubReviewApprovedConstant       = "APPROVED"
	githubReviewChangesConstant        = "CHANGES_REQUESTED"
	githubReviewDismissedConstant      = "DISMISSED"
	listPageSizeConstant               = 100

	operationFetchPullRequestConstant  = "fetch pull request"
	operationFetchRepositoryConstant   = "fetch repository"
	operationCombinedStatusConstant    = "fetch combined status"
	operationCheckRunsConstant         = "list check runs"
	operationReviewsConstant           = "list reviews"
	operationCreatePullRequestConstant = "create pull request"
	operationUpdatePullRequestConstant = "update pull request"

	logMessageRequestConstant  = "github api request"
	logFieldOperationConstant  = "operation"
	logFieldRepositoryConstant = "repository"
)

// ErrTokenNotConfigured indicates the client was constructed without an access token.
var ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)

var failingCheckConclusions = map[string]struct{}{
	"failure":         {},
	"timed_out":       {},
	"cancelled":       {},
	"action_required": {},
	"startup_failure": {},
}

// Configuration describes how to reach the GitHub REST API.
type Configuration struct {
	Token string
	// BaseURL overrides the public API endpoint, for GitHub Enterprise or tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements forge.Client with the GitHub REST API.
type Client struct {
	github *github.Client
	logger *zap.Logger
}

// NewClient constructs an authenticated REST client.
func NewClient(configuration Configuration, logger *zap.Logger) (*Client, error) {
	if len(strings.TrimSpace(configuration.Token)) == 0 {
		return nil, ErrTokenNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	githubClient := github.NewClient(configuration.HTTPClient).WithAuthToken(configuration.Token)
	if trimmedBaseURL := strings.TrimSpace(configuration.BaseURL); len(trimmedBaseURL) > 0 {
		if !strings.HasSuffix(trimmedBaseURL, trailingSlashConstant) {
			trimmedBaseURL += trailingSlashConstant
		}
		parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
		if parseError != nil {
			return nil, fmt.Errorf(invalidBaseURLTemplateConstant, configuration.BaseURL, parseError)
		}
		githubClient.BaseURL = parsedBaseURL
	}

	return &Client{github: githubClient, logger: logger}, nil
}

// FetchPullRequest combines the pull request, its head commit statuses and check runs, and its reviews into a snapshot.
func (client *Client) FetchPullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	pullRequest, getError := client.getPullRequest(executionContext, repository, number)
	if getError != nil {
		return forge.PullRequestSnapshot{}, getError
	}

	snapshot := lifecycleSnapshot(pullRequest)
	snapshot.Mergeable = resolveMergeable(pullRequest)
	snapshot.HasCommits = pullRequest.GetCommits() > 0

	if snapshot.HasCommits {
		rollup, rollupError := client.checkRollup(executionContext, repository, pullRequest.GetHead().GetSHA())
		if rollupError != nil {
			return forge.PullRequestSnapshot{}, rollupError
		}
		snapshot.CheckRollup = rollup
	}

	reviewDecision, reviewError := client.reviewDecision(executionContext, repository, pullRequest)
	if reviewError != nil {
		return forge.PullRequestSnapshot{}, reviewError
	}
	snapshot.ReviewDecision = reviewDecision

	return snapshot, nil
}

// FetchPullRequestState issues a single request and leaves check and review signals unset.
func (client *Client) FetchPullRequestState(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	pullRequest, getError := client.getPullRequest(executionContext, repository, number)
	if getError != nil {
		return forge.PullRequestSnapshot{}, getError
	}
	return lifecycleSnapshot(pullRequest), nil
}

func (client *Client) getPullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (*github.PullRequest, error) {
	client.logRequest(operationFetchPullRequestConstant, repository)
	pullRequest, _, requestError := client.github.PullRequests.Get(executionContext, repository.Owner, repository.Name, number)
	if requestError != nil {
		if isNotFound(requestError) {
			return nil, forge.NoSuchPullRequestError{Repository: repository, Number: number}
		}
		return nil, fmt.Errorf(requestErrorTemplateConstant, operationFetchPullRequestConstant, repository.FullName(), requestError)
	}
	return pullRequest, nil
}

// FetchRepository resolves the node identifier and default branch of a repository.
func (client *Client) FetchRepository(executionContext context.Context, repository gitrepo.Repository) (forge.RepositoryDetails, error) {
	client.logRequest(operationFetchRepositoryConstant, repository)
	githubRepository, _, requestError := client.github.Repositories.Get(executionContext, repository.Owner, repository.Name)
	if requestError != nil {
		if isNotFound(requestError) {
			return forge.RepositoryDetails{}, forge.NoSuchRepositoryError{Repository: repository}
		}
		return forge.RepositoryDetails{}, fmt.Errorf(requestErrorTemplateConstant, operationFetchRepositoryConstant, repository.FullName(), requestError)
	}
	if len(githubRepository.GetDefaultBranch()) == 0 {
		return forge.RepositoryDetails{}, forge.NoDefaultBranchError{Repository: repository}
	}
	return forge.RepositoryDetails{
		NodeID:        githubRepository.GetNodeID(),
		DefaultBranch: githubRepository.GetDefaultBranch(),
	}, nil
}

// CreatePullRequest opens a pull request from the description's head branch into the default branch.
func (client *Client) CreatePullRequest(executionContext context.Context, repository gitrepo.Repository, details forge.RepositoryDetails, description forge.PullRequestDescription) (forge.PullRequest, error) {
	client.logRequest(operationCreatePullRequestConstant, repository)
	created, _, requestError := client.github.PullRequests.Create(executionContext, repository.Owner, repository.Name, &github.NewPullRequest{
		Title: github.String(description.Title),
		Head:  github.String(description.HeadBranch),
		Base:  github.String(details.DefaultBranch),
		Body:  github.String(description.Body),
	})
	if requestError != nil {
		return forge.PullRequest{}, fmt.Errorf(requestErrorTemplateConstant, operationCreatePullRequestConstant, repository.FullName(), requestError)
	}
	return forge.PullRequest{Number: created.GetNumber(), Permalink: created.GetHTMLURL()}, nil
}

// UpdatePullRequest replaces the title and body of an existing pull request. The base branch is left unchanged.
func (client *Client) UpdatePullRequest(executionContext context.Context, repository gitrepo.Repository, existing forge.PullRequestSnapshot, description forge.PullRequestDescription) (forge.PullRequest, error) {
	client.logRequest(operationUpdatePullRequestConstant, repository)
	updated, _, requestError := client.github.PullRequests.Edit(executionContext, repository.Owner, repository.Name, existing.Number, &github.PullRequest{
		Title: github.String(description.Title),
		Body:  github.String(description.Body),
	})
	if requestError != nil {
		return forge.PullRequest{}, fmt.Errorf(requestErrorTemplateConstant, operationUpdatePullRequestConstant, repository.FullName(), requestError)
	}
	return forge.PullRequest{Number: updated.GetNumber(), Permalink: updated.GetHTMLURL()}, nil
}

// checkRollup folds the legacy commit statuses and the check runs of ref into one state.
func (client *Client) checkRollup(executionContext context.Context, repository gitrepo.Repository, ref string) (forge.CheckRollupState, error) {
	combinedStatus, _, statusError := client.github.Repositories.GetCombinedStatus(executionContext, repository.Owner, repository.Name, ref, &github.ListOptions{PerPage: listPageSizeConstant})
	if statusError != nil {
		return forge.CheckRollupStateMissing, fmt.Errorf(requestErrorTemplateConstant, operationCombinedStatusConstant, repository.FullName(), statusError)
	}
	checkRuns, _, checksError := client.github.Checks.ListCheckRunsForRef(executionContext, repository.Owner, repository.Name, ref, &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: listPageSizeConstant}})
	if checksError != nil {
		return forge.CheckRollupStateMissing, fmt.Errorf(requestErrorTemplateConstant, operationCheckRunsConstant, repository.FullName(), checksError)
	}

	states := make([]forge.CheckRollupState, 0, 2)
	if combinedStatus.GetTotalCount() > 0 {
		states = append(states, statusStateToRollup(combinedStatus.GetState()))
	}
	if len(checkRuns.CheckRuns) > 0 {
		states = append(states, checkRunsToRollup(checkRuns.CheckRuns))
	}
	return mergeRollupStates(states), nil
}

func (client *Client) reviewDecision(executionContext context.Context, repository gitrepo.Repository, pullRequest *github.PullRequest) (forge.ReviewDecision, error) {
	reviews, _, reviewsError := client.github.PullRequests.ListReviews(executionContext, repository.Owner, repository.Name, pullRequest.GetNumber(), &github.ListOptions{PerPage: listPageSizeConstant})
	if reviewsError != nil {
		return forge.ReviewDecisionNone, fmt.Errorf(requestErrorTemplateConstant, operationReviewsConstant, repository.FullName(), reviewsError)
	}

	latestReviewStates := make(map[string]string)
	for _, review := range reviews {
		reviewState := review.GetState()
		if reviewState != githubReviewApprovedConstant && reviewState != githubReviewChangesConstant && reviewState != githubReviewDismissedConstant {
			continue
		}
		latestReviewStates[review.GetUser().GetLogin()] = reviewState
	}

	approved := false
	for _, reviewState := range latestReviewStates {
		if reviewState == githubReviewChangesConstant {
			return forge.ReviewDecisionChangesRequested, nil
		}
		if reviewState == githubReviewApprovedConstant {
			approved = true
		}
	}
	if len(pullRequest.RequestedReviewers) > 0 || len(pullRequest.RequestedTeams) > 0 {
		return forge.ReviewDecisionReviewRequired, nil
	}
	if approved {
		return forge.ReviewDecisionApproved, nil
	}
	return forge.ReviewDecisionNone, nil
}

func (client *Client) logRequest(operation string, repository gitrepo.Repository) {
	client.logger.Debug(logMessageRequestConstant, zap.String(logFieldOperationConstant, operation), zap.String(logFieldRepositoryConstant, repository.FullName()))
}

func lifecycleSnapshot(pullRequest *github.PullRequest) forge.PullRequestSnapshot {
	return forge.PullRequestSnapshot{
		NodeID:      pullRequest.GetNodeID(),
		Number:      pullRequest.GetNumber(),
		Permalink:   pullRequest.GetHTMLURL(),
		State:       resolveState(pullRequest),
		Merged:      pullRequest.GetMerged(),
		Mergeable:   forge.MergeableStateUnknown,
		CheckRollup: forge.CheckRollupStateMissing,
	}
}

func resolveState(pullRequest *github.PullRequest) forge.PullRequestState {
	if pullRequest.GetMerged() {
		return forge.PullRequestStateMerged
	}
	if pullRequest.GetState() == githubStateOpenConstant {
		return forge.PullRequestStateOpen
	}
	return forge.PullRequestStateClosed
}

func resolveMergeable(pullRequest *github.PullRequest) forge.MergeableState {
	if pullRequest.Mergeable == nil {
		return forge.MergeableStateUnknown
	}
	if pullRequest.GetMergeable() {
		return forge.MergeableStateMergeable
	}
	return forge.MergeableStateConflicting
}

func statusStateToRollup(state string) forge.CheckRollupState {
	switch state {
	case githubStatusSuccessConstant:
		return forge.CheckRollupStateSuccess
	case githubStatusPendingConstant:
		return forge.CheckRollupStatePending
	case githubStatusErrorConstant:
		return forge.CheckRollupStateError
	default:
		return forge.CheckRollupStateFailure
	}
}

func checkRunsToRollup(checkRuns []*github.CheckRun) forge.CheckRollupState {
	pending := false
	for _, checkRun := range checkRuns {
		if checkRun.GetStatus() != githubCheckStatusCompletedConstant {
			pending = true
			continue
		}
		if _, failing := failingCheckConclusions[checkRun.GetConclusion()]; failing {
			return forge.CheckRollupStateFailure
		}
	}
	if pending {
		return forge.CheckRollupStatePending
	}
	return forge.CheckRollupStateSuccess
}

func mergeRollupStates(states []forge.CheckRollupState) forge.CheckRollupState {
	if len(states) == 0 {
		return forge.CheckRollupStateMissing
	}
	merged := forge.CheckRollupStateSuccess
	for _, state := range states {
		switch state {
		case forge.CheckRollupStateFailure, forge.CheckRollupStateError:
			return state
		case forge.CheckRollupStatePending:
			merged = forge.CheckRollupStatePending
		}
	}
	return merged
}

func isNotFound(requestError error) bool {
	var responseError *github.ErrorResponse
	if errors.As(requestError, &responseError) && responseError.Response != nil {
		return responseError.Response.StatusCode == http.StatusNotFound
	}
	return false
}
