package forge

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/clu/internal/gitrepo"
)

const (
	logMessageUpdatingPullRequestConstant = "updating existing pull request"
	logMessageCreatingPullRequestConstant = "creating pull request"
	logMessageClosedPullRequestConstant   = "remembered pull request is no longer open"
	logFieldRepositoryConstant            = "repository"
	logFieldNumberConstant                = "number"
	logFieldBaseBranchConstant            = "base_branch"
	logFieldStateConstant                 = "state"
)

// Reconciler decides between creating and updating pull requests and classifies existing ones.
type Reconciler struct {
	client Client
	logger *zap.Logger
}

// NewReconciler constructs a Reconciler over client.
func NewReconciler(client Client, logger *zap.Logger) (*Reconciler, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{client: client, logger: logger}, nil
}

// SyncPullRequest updates the remembered pull request when it is still open and otherwise creates a new
// one against the repository's default branch. A nil existingNumber always creates.
func (reconciler *Reconciler) SyncPullRequest(executionContext context.Context, repository gitrepo.Repository, description PullRequestDescription, existingNumber *int) (PullRequest, error) {
	if existingNumber != nil {
		snapshot, fetchError := reconciler.client.FetchPullRequestState(executionContext, repository, *existingNumber)
		if fetchError != nil {
			return PullRequest{}, fetchError
		}
		if snapshot.IsOpen() {
			reconciler.logger.Info(logMessageUpdatingPullRequestConstant,
				zap.String(logFieldRepositoryConstant, repository.FullName()),
				zap.Int(logFieldNumberConstant, snapshot.Number),
			)
			return reconciler.client.UpdatePullRequest(executionContext, repository, snapshot, description)
		}
		reconciler.logger.Info(logMessageClosedPullRequestConstant,
			zap.String(logFieldRepositoryConstant, repository.FullName()),
			zap.Int(logFieldNumberConstant, snapshot.Number),
			zap.String(logFieldStateConstant, string(snapshot.State)),
		)
	}

	details, repositoryError := reconciler.client.FetchRepository(executionContext, repository)
	if repositoryError != nil {
		return PullRequest{}, repositoryError
	}
	reconciler.logger.Info(logMessageCreatingPullRequestConstant,
		zap.String(logFieldRepositoryConstant, repository.FullName()),
		zap.String(logFieldBaseBranchConstant, details.DefaultBranch),
	)
	return reconciler.client.CreatePullRequest(executionContext, repository, details, description)
}

// PullRequestStatus fetches and classifies a pull request.
func (reconciler *Reconciler) PullRequestStatus(executionContext context.Context, repository gitrepo.Repository, number int) (PullState, error) {
	snapshot, fetchError := reconciler.client.FetchPullRequest(executionContext, repository, number)
	if fetchError != nil {
		return PullState{}, fetchError
	}
	return PullState{Status: ClassifyPullRequest(snapshot), Permalink: snapshot.Permalink}, nil
}

// PullRequest fetches the raw snapshot of a pull request.
func (reconciler *Reconciler) PullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (PullRequestSnapshot, error) {
	return reconciler.client.FetchPullRequest(executionContext, repository, number)
}
