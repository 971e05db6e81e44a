package forge

import (
	"errors"
	"fmt"

	"github.com/temirov/clu/internal/gitrepo"
)

const (
	clientNotConfiguredMessageConstant = "forge client not configured"
	noSuchRepositoryTemplateConstant   = "repository %s does not exist"
	noSuchPullRequestTemplateConstant  = "pull request %s#%d does not exist"
	noDefaultBranchTemplateConstant    = "repository %s has no default branch"
	emptyResponseTemplateConstant      = "%s returned no pull request for %s"
)

// ErrClientNotConfigured indicates the reconciler was constructed without a forge client.
var ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)

// NoSuchRepositoryError reports a repository the forge does not know.
type NoSuchRepositoryError struct {
	Repository gitrepo.Repository
}

// Error describes the missing repository.
func (missingError NoSuchRepositoryError) Error() string {
	return fmt.Sprintf(noSuchRepositoryTemplateConstant, missingError.Repository.FullName())
}

// NoSuchPullRequestError reports a pull request number the forge does not know.
type NoSuchPullRequestError struct {
	Repository gitrepo.Repository
	Number     int
}

// Error describes the missing pull request.
func (missingError NoSuchPullRequestError) Error() string {
	return fmt.Sprintf(noSuchPullRequestTemplateConstant, missingError.Repository.FullName(), missingError.Number)
}

// NoDefaultBranchError reports a repository without a default branch to target.
type NoDefaultBranchError struct {
	Repository gitrepo.Repository
}

// Error describes the missing default branch.
func (missingError NoDefaultBranchError) Error() string {
	return fmt.Sprintf(noDefaultBranchTemplateConstant, missingError.Repository.FullName())
}

// EmptyMutationResponseError reports a create or update call that succeeded without returning a pull request.
type EmptyMutationResponseError struct {
	Mutation   string
	Repository gitrepo.Repository
}

// Error describes the empty response.
func (emptyError EmptyMutationResponseError) Error() string {
	return fmt.Sprintf(emptyResponseTemplateConstant, emptyError.Mutation, emptyError.Repository.FullName())
}
