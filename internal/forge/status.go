package forge

// PullStatus classifies how close a pull request is to landing.
type PullStatus int

// Pull request classifications, ordered from furthest to closest to landing.
const (
	PullStatusChecksFailed PullStatus = iota
	PullStatusNeedsApproval
	PullStatusMergeable
	PullStatusMerged
)

var pullStatusLabels = map[PullStatus]string{
	PullStatusChecksFailed:  "Checks Failed",
	PullStatusNeedsApproval: "Not Approved",
	PullStatusMergeable:     "Mergeable",
	PullStatusMerged:        "Merged",
}

// String returns the report heading for the status.
func (status PullStatus) String() string {
	return pullStatusLabels[status]
}

// AllPullStatuses lists every classification in report order.
func AllPullStatuses() []PullStatus {
	return []PullStatus{PullStatusChecksFailed, PullStatusNeedsApproval, PullStatusMergeable, PullStatusMerged}
}

// PullState pairs a classification with the pull request it describes.
type PullState struct {
	Status    PullStatus
	Permalink string
}

// ClassifyPullRequest evaluates the merged flag, then the forge mergeability flag, then the latest commit's
// check rollup. A passing or pending rollup with outstanding required reviews classifies as NeedsApproval.
func ClassifyPullRequest(snapshot PullRequestSnapshot) PullStatus {
	if snapshot.Merged {
		return PullStatusMerged
	}
	if snapshot.Mergeable == MergeableStateMergeable {
		return PullStatusMergeable
	}
	if !snapshot.HasCommits || snapshot.CheckRollup == CheckRollupStateMissing {
		return PullStatusChecksFailed
	}
	switch snapshot.CheckRollup {
	case CheckRollupStateSuccess, CheckRollupStatePending:
		if snapshot.ReviewDecision == ReviewDecisionReviewRequired || snapshot.ReviewDecision == ReviewDecisionChangesRequested {
			return PullStatusNeedsApproval
		}
		return PullStatusMergeable
	default:
		return PullStatusChecksFailed
	}
}
