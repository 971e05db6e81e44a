// Package githubcli implements the forge client on top of the GitHub CLI.
//
// Every request is a GraphQL document piped to `gh api graphql --input -`, so
// authentication follows whatever the local gh installation is logged in as.
package githubcli
