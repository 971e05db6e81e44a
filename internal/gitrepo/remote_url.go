package gitrepo

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	invalidGitRepoErrorTemplateConstant = "not a valid GitHub repository URL: %q"
	httpsRemotePrefixConstant           = "https://github.com/"
	sshRemotePrefixConstant             = "git@github.com:"
	sshURLRemotePrefixConstant          = "ssh://git@github.com/"
	ownerRepositoryTemplateConstant     = "%s/%s"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

var gitHubRemotePattern = regexp.MustCompile(`^(https://github\.com/|git@github\.com:|ssh://git@github\.com/)([^/]+)/([^/]+?)(\.git)?$`)

// Repository identifies a GitHub repository resolved from a clone URL.
type Repository struct {
	Protocol RemoteProtocol
	Owner    string
	Name     string
	CloneURL string
}

// FullName renders the repository as owner/name.
func (repository Repository) FullName() string {
	return fmt.Sprintf(ownerRepositoryTemplateConstant, repository.Owner, repository.Name)
}

// InvalidGitRepoError indicates a clone URL does not point at a recognizable GitHub repository.
type InvalidGitRepoError struct {
	URL string
}

// Error describes the unrecognized URL.
func (invalidError InvalidGitRepoError) Error() string {
	return fmt.Sprintf(invalidGitRepoErrorTemplateConstant, invalidError.URL)
}

// ResolveRepository parses an https, ssh://, or scp-style GitHub clone URL into its owner and repository name.
func ResolveRepository(cloneURL string) (Repository, error) {
	trimmedURL := strings.TrimSpace(cloneURL)
	matches := gitHubRemotePattern.FindStringSubmatch(trimmedURL)
	if matches == nil {
		return Repository{}, InvalidGitRepoError{URL: cloneURL}
	}

	protocol := RemoteProtocolHTTPS
	if matches[1] == sshRemotePrefixConstant || matches[1] == sshURLRemotePrefixConstant {
		protocol = RemoteProtocolSSH
	}

	return Repository{
		Protocol: protocol,
		Owner:    matches[2],
		Name:     matches[3],
		CloneURL: trimmedURL,
	}, nil
}
