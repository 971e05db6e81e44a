// Package githubauth locates the GitHub access token used by the REST forge backend.
package githubauth
