package githubauth

import (
	"fmt"
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub access token, in order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const (
	missingTokenTemplateConstant  = "no GitHub token found; set one of %s"
	variableListSeparatorConstant = ", "
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// MissingTokenError reports that none of the token variables carried a value.
type MissingTokenError struct {
	Variables []string
}

// Error describes the variables that were consulted.
func (missingError MissingTokenError) Error() string {
	return fmt.Sprintf(missingTokenTemplateConstant, strings.Join(missingError.Variables, variableListSeparatorConstant))
}

// EnvironmentLookup resolves a single environment variable.
type EnvironmentLookup func(key string) (string, bool)

// TokenResolver finds a GitHub token in an explicit value, an overlay map, or the process environment.
type TokenResolver struct {
	lookup EnvironmentLookup
}

// NewTokenResolver constructs a resolver. A nil lookup falls back to os.LookupEnv.
func NewTokenResolver(lookup EnvironmentLookup) TokenResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return TokenResolver{lookup: lookup}
}

// Resolve returns explicitToken when set, then the first non-empty preferred variable from environment, then from the process.
func (resolver TokenResolver) Resolve(explicitToken string, environment map[string]string) (string, bool) {
	if trimmed := strings.TrimSpace(explicitToken); len(trimmed) > 0 {
		return trimmed, true
	}
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	processLookup := resolver.lookup
	if processLookup == nil {
		processLookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		if value, ok := processLookup(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

// Require behaves like Resolve but reports MissingTokenError when nothing is found.
func (resolver TokenResolver) Require(explicitToken string, environment map[string]string) (string, error) {
	token, found := resolver.Resolve(explicitToken, environment)
	if !found {
		return "", MissingTokenError{Variables: append([]string{}, tokenPreference...)}
	}
	return token, nil
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
