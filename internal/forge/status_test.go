package forge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/forge"
)

func TestClassifyPullRequest(testInstance *testing.T) {
	testCases := []struct {
		name           string
		snapshot       forge.PullRequestSnapshot
		expectedStatus forge.PullStatus
	}{
		{
			name:           "merged_with_failing_rollup",
			snapshot:       forge.PullRequestSnapshot{Merged: true, HasCommits: true, CheckRollup: forge.CheckRollupStateFailure},
			expectedStatus: forge.PullStatusMerged,
		},
		{
			name:           "mergeable_flag_with_failing_rollup",
			snapshot:       forge.PullRequestSnapshot{Mergeable: forge.MergeableStateMergeable, HasCommits: true, CheckRollup: forge.CheckRollupStateFailure},
			expectedStatus: forge.PullStatusMergeable,
		},
		{
			name:           "mergeable_flag_without_commits",
			snapshot:       forge.PullRequestSnapshot{Mergeable: forge.MergeableStateMergeable},
			expectedStatus: forge.PullStatusMergeable,
		},
		{
			name:           "rollup_success",
			snapshot:       forge.PullRequestSnapshot{Mergeable: forge.MergeableStateUnknown, HasCommits: true, CheckRollup: forge.CheckRollupStateSuccess},
			expectedStatus: forge.PullStatusMergeable,
		},
		{
			name:           "rollup_pending",
			snapshot:       forge.PullRequestSnapshot{Mergeable: forge.MergeableStateConflicting, HasCommits: true, CheckRollup: forge.CheckRollupStatePending},
			expectedStatus: forge.PullStatusMergeable,
		},
		{
			name:           "no_commits",
			snapshot:       forge.PullRequestSnapshot{Mergeable: forge.MergeableStateUnknown, CheckRollup: forge.CheckRollupStateSuccess},
			expectedStatus: forge.PullStatusChecksFailed,
		},
		{
			name:           "missing_rollup",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true},
			expectedStatus: forge.PullStatusChecksFailed,
		},
		{
			name:           "rollup_failure",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true, CheckRollup: forge.CheckRollupStateFailure},
			expectedStatus: forge.PullStatusChecksFailed,
		},
		{
			name:           "rollup_error",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true, CheckRollup: forge.CheckRollupStateError},
			expectedStatus: forge.PullStatusChecksFailed,
		},
		{
			name:           "rollup_success_review_required",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true, CheckRollup: forge.CheckRollupStateSuccess, ReviewDecision: forge.ReviewDecisionReviewRequired},
			expectedStatus: forge.PullStatusNeedsApproval,
		},
		{
			name:           "rollup_pending_changes_requested",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true, CheckRollup: forge.CheckRollupStatePending, ReviewDecision: forge.ReviewDecisionChangesRequested},
			expectedStatus: forge.PullStatusNeedsApproval,
		},
		{
			name:           "rollup_failure_review_required",
			snapshot:       forge.PullRequestSnapshot{HasCommits: true, CheckRollup: forge.CheckRollupStateFailure, ReviewDecision: forge.ReviewDecisionReviewRequired},
			expectedStatus: forge.PullStatusChecksFailed,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStatus, forge.ClassifyPullRequest(testCase.snapshot))
		})
	}
}

func TestPullStatusLabels(testInstance *testing.T) {
	labels := make([]string, 0)
	for _, status := range forge.AllPullStatuses() {
		labels = append(labels, status.String())
	}
	require.Equal(testInstance, []string{"Checks Failed", "Not Approved", "Mergeable", "Merged"}, labels)
}
