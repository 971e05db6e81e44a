package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/gitrepo"
)

const (
	apiSubcommandConstant                      = "api"
	graphQLEndpointConstant                    = "graphql"
	inputFlagConstant                          = "--input"
	stdinReferenceConstant                     = "-"
	executorNotConfiguredMessageConstant       = "github cli executor not configured"
	operationErrorMessageTemplateConstant      = "%s operation failed"
	operationErrorWithCauseTemplateConstant    = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant      = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant       = "%s payload encoding failed: %s"
	graphQLErrorTemplateConstant               = "%s returned errors: %s"
	graphQLErrorSeparatorConstant              = "; "
	createMutationNameConstant                 = "createPullRequest"
	updateMutationNameConstant                 = "updatePullRequest"
	fetchPullRequestOperationNameConstant      = OperationName("FetchPullRequest")
	fetchPullRequestStateOperationNameConstant = OperationName("FetchPullRequestState")
	fetchRepositoryOperationNameConstant       = OperationName("FetchRepository")
	createPullRequestOperationNameConstant     = OperationName("CreatePullRequest")
	updatePullRequestOperationNameConstant     = OperationName("UpdatePullRequest")
)

const pullRequestQueryConstant = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      id
      number
      permalink
      state
      merged
      mergeable
      reviewDecision
      commits(last: 1) {
        nodes {
          commit {
            statusCheckRollup {
              state
            }
          }
        }
      }
    }
  }
}`

const pullRequestStateQueryConstant = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      id
      number
      permalink
      state
      merged
    }
  }
}`

const repositoryQueryConstant = `query($owner: String!, $repo: String!) {
  repository(owner: $owner, name: $repo) {
    id
    defaultBranchRef {
      name
    }
  }
}`

const createPullRequestMutationConstant = `mutation($input: CreatePullRequestInput!) {
  createPullRequest(input: $input) {
    pullRequest {
      number
      permalink
    }
  }
}`

const updatePullRequestMutationConstant = `mutation($input: UpdatePullRequestInput!) {
  updatePullRequest(input: $input) {
    pullRequest {
      number
      permalink
    }
  }
}`

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client implements forge.Client through gh api graphql.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// GraphQLError reports errors returned in a GraphQL response body.
type GraphQLError struct {
	Operation OperationName
	Messages  []string
}

// Error lists the reported messages.
func (graphQLError GraphQLError) Error() string {
	return fmt.Sprintf(graphQLErrorTemplateConstant, graphQLError.Operation, strings.Join(graphQLError.Messages, graphQLErrorSeparatorConstant))
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse[Data any] struct {
	Data   Data `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type pullRequestPayload struct {
	Number    int    `json:"number"`
	Permalink string `json:"permalink"`
}

// FetchPullRequest reads the state, mergeability, review decision, and latest check rollup of a pull request.
func (client *Client) FetchPullRequest(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	var response graphQLResponse[struct {
		Repository *struct {
			PullRequest *struct {
				ID             string `json:"id"`
				Number         int    `json:"number"`
				Permalink      string `json:"permalink"`
				State          string `json:"state"`
				Merged         bool   `json:"merged"`
				Mergeable      string `json:"mergeable"`
				ReviewDecision string `json:"reviewDecision"`
				Commits        struct {
					Nodes []struct {
						Commit struct {
							StatusCheckRollup *struct {
								State string `json:"state"`
							} `json:"statusCheckRollup"`
						} `json:"commit"`
					} `json:"nodes"`
				} `json:"commits"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}]

	variables := map[string]any{"owner": repository.Owner, "repo": repository.Name, "number": number}
	if queryError := client.query(executionContext, fetchPullRequestOperationNameConstant, pullRequestQueryConstant, variables, &response); queryError != nil {
		return forge.PullRequestSnapshot{}, queryError
	}
	if response.Data.Repository == nil {
		return forge.PullRequestSnapshot{}, forge.NoSuchRepositoryError{Repository: repository}
	}
	pullRequest := response.Data.Repository.PullRequest
	if pullRequest == nil {
		return forge.PullRequestSnapshot{}, forge.NoSuchPullRequestError{Repository: repository, Number: number}
	}

	snapshot := forge.PullRequestSnapshot{
		NodeID:         pullRequest.ID,
		Number:         pullRequest.Number,
		Permalink:      pullRequest.Permalink,
		State:          forge.PullRequestState(pullRequest.State),
		Merged:         pullRequest.Merged,
		Mergeable:      forge.MergeableState(pullRequest.Mergeable),
		ReviewDecision: forge.ReviewDecision(pullRequest.ReviewDecision),
		CheckRollup:    forge.CheckRollupStateMissing,
	}
	if len(pullRequest.Commits.Nodes) > 0 {
		snapshot.HasCommits = true
		if rollup := pullRequest.Commits.Nodes[0].Commit.StatusCheckRollup; rollup != nil {
			snapshot.CheckRollup = forge.CheckRollupState(rollup.State)
		}
	}
	return snapshot, nil
}

// FetchPullRequestState reads only the identity and lifecycle state of a pull request.
func (client *Client) FetchPullRequestState(executionContext context.Context, repository gitrepo.Repository, number int) (forge.PullRequestSnapshot, error) {
	var response graphQLResponse[struct {
		Repository *struct {
			PullRequest *struct {
				ID        string `json:"id"`
				Number    int    `json:"number"`
				Permalink string `json:"permalink"`
				State     string `json:"state"`
				Merged    bool   `json:"merged"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}]

	variables := map[string]any{"owner": repository.Owner, "repo": repository.Name, "number": number}
	if queryError := client.query(executionContext, fetchPullRequestStateOperationNameConstant, pullRequestStateQueryConstant, variables, &response); queryError != nil {
		return forge.PullRequestSnapshot{}, queryError
	}
	if response.Data.Repository == nil {
		return forge.PullRequestSnapshot{}, forge.NoSuchRepositoryError{Repository: repository}
	}
	pullRequest := response.Data.Repository.PullRequest
	if pullRequest == nil {
		return forge.PullRequestSnapshot{}, forge.NoSuchPullRequestError{Repository: repository, Number: number}
	}
	return forge.PullRequestSnapshot{
		NodeID:      pullRequest.ID,
		Number:      pullRequest.Number,
		Permalink:   pullRequest.Permalink,
		State:       forge.PullRequestState(pullRequest.State),
		Merged:      pullRequest.Merged,
		Mergeable:   forge.MergeableStateUnknown,
		CheckRollup: forge.CheckRollupStateMissing,
	}, nil
}

// FetchRepository resolves the node identifier and default branch of a repository.
func (client *Client) FetchRepository(executionContext context.Context, repository gitrepo.Repository) (forge.RepositoryDetails, error) {
	var response graphQLResponse[struct {
		Repository *struct {
			ID               string `json:"id"`
			DefaultBranchRef *struct {
				Name string `json:"name"`
			} `json:"defaultBranchRef"`
		} `json:"repository"`
	}]

	variables := map[string]any{"owner": repository.Owner, "repo": repository.Name}
	if queryError := client.query(executionContext, fetchRepositoryOperationNameConstant, repositoryQueryConstant, variables, &response); queryError != nil {
		return forge.RepositoryDetails{}, queryError
	}
	if response.Data.Repository == nil {
		return forge.RepositoryDetails{}, forge.NoSuchRepositoryError{Repository: repository}
	}
	if response.Data.Repository.DefaultBranchRef == nil {
		return forge.RepositoryDetails{}, forge.NoDefaultBranchError{Repository: repository}
	}
	return forge.RepositoryDetails{
		NodeID:        response.Data.Repository.ID,
		DefaultBranch: response.Data.Repository.DefaultBranchRef.Name,
	}, nil
}

// CreatePullRequest opens a pull request from the description's head branch into the default branch.
func (client *Client) CreatePullRequest(executionContext context.Context, repository gitrepo.Repository, details forge.RepositoryDetails, description forge.PullRequestDescription) (forge.PullRequest, error) {
	var response graphQLResponse[struct {
		CreatePullRequest *struct {
			PullRequest *pullRequestPayload `json:"pullRequest"`
		} `json:"createPullRequest"`
	}]

	variables := map[string]any{"input": map[string]any{
		"repositoryId": details.NodeID,
		"baseRefName":  details.DefaultBranch,
		"headRefName":  description.HeadBranch,
		"title":        description.Title,
		"body":         description.Body,
	}}
	if queryError := client.query(executionContext, createPullRequestOperationNameConstant, createPullRequestMutationConstant, variables, &response); queryError != nil {
		return forge.PullRequest{}, queryError
	}
	if response.Data.CreatePullRequest == nil || response.Data.CreatePullRequest.PullRequest == nil {
		return forge.PullRequest{}, forge.EmptyMutationResponseError{Mutation: createMutationNameConstant, Repository: repository}
	}
	created := response.Data.CreatePullRequest.PullRequest
	return forge.PullRequest{Number: created.Number, Permalink: created.Permalink}, nil
}

// UpdatePullRequest replaces the title and body of an existing pull request. The base branch is left unchanged.
func (client *Client) UpdatePullRequest(executionContext context.Context, repository gitrepo.Repository, existing forge.PullRequestSnapshot, description forge.PullRequestDescription) (forge.PullRequest, error) {
	var response graphQLResponse[struct {
		UpdatePullRequest *struct {
			PullRequest *pullRequestPayload `json:"pullRequest"`
		} `json:"updatePullRequest"`
	}]

	variables := map[string]any{"input": map[string]any{
		"pullRequestId": existing.NodeID,
		"title":         description.Title,
		"body":          description.Body,
	}}
	if queryError := client.query(executionContext, updatePullRequestOperationNameConstant, updatePullRequestMutationConstant, variables, &response); queryError != nil {
		return forge.PullRequest{}, queryError
	}
	if response.Data.UpdatePullRequest == nil || response.Data.UpdatePullRequest.PullRequest == nil {
		return forge.PullRequest{}, forge.EmptyMutationResponseError{Mutation: updateMutationNameConstant, Repository: repository}
	}
	updated := response.Data.UpdatePullRequest.PullRequest
	return forge.PullRequest{Number: updated.Number, Permalink: updated.Permalink}, nil
}

func (client *Client) query(executionContext context.Context, operation OperationName, query string, variables map[string]any, response any) error {
	payloadBytes, encodingError := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if encodingError != nil {
		return PayloadEncodingError{Operation: operation, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			graphQLEndpointConstant,
			inputFlagConstant,
			stdinReferenceConstant,
		},
		StandardInput: payloadBytes,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: operation, Cause: executionError}
	}

	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), response); decodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodingError}
	}

	var errorEnvelope graphQLResponse[json.RawMessage]
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &errorEnvelope); decodingError == nil && len(errorEnvelope.Errors) > 0 {
		messages := make([]string, 0, len(errorEnvelope.Errors))
		for _, reportedError := range errorEnvelope.Errors {
			messages = append(messages, reportedError.Message)
		}
		return GraphQLError{Operation: operation, Messages: messages}
	}
	return nil
}
