// Package forge reconciles campaign pull requests with a code forge.
//
// Client is the contract a backend implements. Reconciler chooses between
// updating a remembered pull request and creating a fresh one, and
// ClassifyPullRequest ranks a pull request for the campaign status report.
package forge
