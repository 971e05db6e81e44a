// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// ResolveRepository maps GitHub clone URLs to owner and repository names, and
// RepositoryManager performs the clone, branch, status, and push operations a
// migration pipeline needs through any GitCommandRunner.
package gitrepo
