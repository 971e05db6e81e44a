// Package githubapi implements the forge client against the GitHub REST API
// using go-github. The check rollup is assembled from the combined commit
// status and the check runs of the pull request head, and the review decision
// from the latest review of each reviewer plus outstanding review requests.
package githubapi
