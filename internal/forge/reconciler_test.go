package forge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
)

const (
	testRemoteURLConstant     = "git@github.com:org/repo-a.git"
	testPermalinkConstant     = "https://github.com/org/repo-a/pull/7"
	testNewPermalinkConstant  = "https://github.com/org/repo-a/pull/12"
	testDefaultBranchConstant = "trunk"
)

type stubForgeClient struct {
	snapshot        forge.PullRequestSnapshot
	fetchError      error
	repositoryError error
	createdBases    []string
	updatedNumbers  []int
	fetchedNumbers  []int
	stateNumbers    []int
}

func (client *stubForgeClient) FetchPullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	client.fetchedNumbers = append(client.fetchedNumbers, number)
	return client.snapshot, client.fetchError
}

func (client *stubForgeClient) FetchPullRequestState(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	client.stateNumbers = append(client.stateNumbers, number)
	return client.snapshot, client.fetchError
}

func (client *stubForgeClient) FetchRepository(executionContext context.Context, repository gitrepo.Repository) (forge.RepositoryDetails, error) {
	return forge.RepositoryDetails{NodeID: "R_1", DefaultBranch: testDefaultBranchConstant}, client.repositoryError
}

func (client *stubForgeClient) CreatePullRequest(executionContext context.Context, repository gitrepo.Repository, details forge.RepositoryDetails, description forge.PullRequestDescription) (forge.PullRequest, error) {
	client.createdBases = append(client.createdBases, details.DefaultBranch)
	return forge.PullRequest{Number: 12, Permalink: testNewPermalinkConstant}, nil
}

func (client *stubForgeClient) UpdatePullRequest(executionContext context.Context, repository gitrepo.Repository, existing forge.PullRequestSnapshot, description forge.PullRequestDescription) (forge.PullRequest, error) {
	client.updatedNumbers = append(client.updatedNumbers, existing.Number)
	return forge.PullRequest{Number: existing.Number, Permalink: existing.Permalink}, nil
}

func intPointer(value int) *int {
	return &value
}

func TestNewReconcilerRequiresClient(testInstance *testing.T) {
	reconciler, creationError := forge.NewReconciler(nil, zap.NewNop())
	require.Nil(testInstance, reconciler)
	require.ErrorIs(testInstance, creationError, forge.ErrClientNotConfigured)
}

func TestSyncPullRequest(testInstance *testing.T) {
	repository, resolveError := gitrepo.ResolveRepository(testRemoteURLConstant)
	require.NoError(testInstance, resolveError)
	description := forge.PullRequestDescription{HeadBranch: "demo", Title: "Demo", Body: "Body"}

	testCases := []struct {
		name            string
		existingNumber  *int
		snapshot        forge.PullRequestSnapshot
		expectedResult  forge.PullRequest
		expectedCreates []string
		expectedUpdates []int
		expectedLookups []int
	}{
		{
			name:            "no_remembered_pull_request",
			expectedResult:  forge.PullRequest{Number: 12, Permalink: testNewPermalinkConstant},
			expectedCreates: []string{testDefaultBranchConstant},
		},
		{
			name:            "remembered_open_pull_request",
			existingNumber:  intPointer(7),
			expectedLookups: []int{7},
			snapshot:        forge.PullRequestSnapshot{Number: 7, Permalink: testPermalinkConstant, State: forge.PullRequestStateOpen},
			expectedResult:  forge.PullRequest{Number: 7, Permalink: testPermalinkConstant},
			expectedUpdates: []int{7},
		},
		{
			name:            "remembered_closed_pull_request",
			existingNumber:  intPointer(7),
			expectedLookups: []int{7},
			snapshot:        forge.PullRequestSnapshot{Number: 7, Permalink: testPermalinkConstant, State: forge.PullRequestStateClosed},
			expectedResult:  forge.PullRequest{Number: 12, Permalink: testNewPermalinkConstant},
			expectedCreates: []string{testDefaultBranchConstant},
		},
		{
			name:            "remembered_merged_pull_request",
			existingNumber:  intPointer(7),
			expectedLookups: []int{7},
			snapshot:        forge.PullRequestSnapshot{Number: 7, Permalink: testPermalinkConstant, State: forge.PullRequestStateMerged, Merged: true},
			expectedResult:  forge.PullRequest{Number: 12, Permalink: testNewPermalinkConstant},
			expectedCreates: []string{testDefaultBranchConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := &stubForgeClient{snapshot: testCase.snapshot}
			reconciler, creationError := forge.NewReconciler(client, zap.NewNop())
			require.NoError(testInstance, creationError)

			pullRequest, syncError := reconciler.SyncPullRequest(context.Background(), repository, description, testCase.existingNumber)
			require.NoError(testInstance, syncError)
			require.Equal(testInstance, testCase.expectedResult, pullRequest)
			require.Equal(testInstance, testCase.expectedCreates, client.createdBases)
			require.Equal(testInstance, testCase.expectedUpdates, client.updatedNumbers)
			require.Equal(testInstance, testCase.expectedLookups, client.stateNumbers)
			require.Empty(testInstance, client.fetchedNumbers)
		})
	}
}

func TestSyncPullRequestPropagatesErrors(testInstance *testing.T) {
	repository, resolveError := gitrepo.ResolveRepository(testRemoteURLConstant)
	require.NoError(testInstance, resolveError)

	fetchFailure := forge.NoSuchPullRequestError{Repository: repository, Number: 7}
	client := &stubForgeClient{fetchError: fetchFailure}
	reconciler, creationError := forge.NewReconciler(client, nil)
	require.NoError(testInstance, creationError)

	_, syncError := reconciler.SyncPullRequest(context.Background(), repository, forge.PullRequestDescription{}, intPointer(7))
	require.ErrorIs(testInstance, syncError, fetchFailure)
	require.Equal(testInstance, "pull request org/repo-a#7 does not exist", syncError.Error())
	require.Empty(testInstance, client.createdBases)

	repositoryFailure := errors.New("rate limited")
	client = &stubForgeClient{repositoryError: repositoryFailure}
	reconciler, creationError = forge.NewReconciler(client, nil)
	require.NoError(testInstance, creationError)

	_, syncError = reconciler.SyncPullRequest(context.Background(), repository, forge.PullRequestDescription{}, nil)
	require.ErrorIs(testInstance, syncError, repositoryFailure)
	require.Empty(testInstance, client.createdBases)
}

func TestPullRequestStatus(testInstance *testing.T) {
	repository, resolveError := gitrepo.ResolveRepository(testRemoteURLConstant)
	require.NoError(testInstance, resolveError)

	client := &stubForgeClient{snapshot: forge.PullRequestSnapshot{
		Number:      7,
		Permalink:   testPermalinkConstant,
		Merged:      true,
		HasCommits:  true,
		CheckRollup: forge.CheckRollupStateFailure,
	}}
	reconciler, creationError := forge.NewReconciler(client, zap.NewNop())
	require.NoError(testInstance, creationError)

	pullState, statusError := reconciler.PullRequestStatus(context.Background(), repository, 7)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, forge.PullState{Status: forge.PullStatusMerged, Permalink: testPermalinkConstant}, pullState)
	require.Equal(testInstance, []int{7}, client.fetchedNumbers)
}
