// Package backend selects the forge.Client implementation named in configuration.
package backend

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clu/internal/forge"
	"github.com/temirov/clu/internal/githubapi"
	"github.com/temirov/clu/internal/githubauth"
	"github.com/temirov/clu/internal/githubcli"
	"github.com/temirov/clu/internal/utils/flags"
)

// Supported backend names.
const (
	NameAPI     = "api"
	NameCLI     = "cli"
	DefaultName = NameCLI
)

const (
	backendFlagNameConstant             = "forge"
	backendFlagDescriptionConstant      = "Forge backend: the REST API or the gh CLI"
	unsupportedBackendTemplateConstant  = "unsupported forge backend %q"
	clientCreationErrorTemplateConstant = "unable to construct %s forge client: %w"
)

// Flag is the --forge choice shared by commands that talk to the forge.
var Flag = flags.ChoiceFlag{
	Name:        backendFlagNameConstant,
	Default:     DefaultName,
	Choices:     []string{NameAPI, NameCLI},
	Description: backendFlagDescriptionConstant,
}

// UnsupportedBackendError reports an unknown backend name.
type UnsupportedBackendError struct {
	Name string
}

// Error names the rejected backend.
func (backendError UnsupportedBackendError) Error() string {
	return fmt.Sprintf(unsupportedBackendTemplateConstant, backendError.Name)
}

// Configuration captures the persisted forge settings.
type Configuration struct {
	Backend string `mapstructure:"backend"`
	BaseURL string `mapstructure:"base_url"`
}

// DefaultConfiguration returns the gh CLI backend against public GitHub.
func DefaultConfiguration() Configuration {
	return Configuration{Backend: DefaultName}
}

// Sanitize trims values and lower-cases the backend name.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Backend = strings.ToLower(strings.TrimSpace(sanitized.Backend))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = DefaultName
	}
	sanitized.BaseURL = strings.TrimSpace(sanitized.BaseURL)
	return sanitized
}

// Dependencies enumerates what the backends need.
type Dependencies struct {
	Executor      githubcli.GitHubCommandExecutor
	Logger        *zap.Logger
	TokenResolver githubauth.TokenResolver
	// Token takes precedence over the environment for the REST backend.
	Token string
}

// NewClient constructs the client selected by configuration.
func NewClient(configuration Configuration, dependencies Dependencies) (forge.Client, error) {
	sanitized := configuration.Sanitize()
	switch sanitized.Backend {
	case NameAPI:
		token, tokenError := dependencies.TokenResolver.Require(dependencies.Token, nil)
		if tokenError != nil {
			return nil, fmt.Errorf(clientCreationErrorTemplateConstant, NameAPI, tokenError)
		}
		client, clientError := githubapi.NewClient(githubapi.Configuration{Token: token, BaseURL: sanitized.BaseURL}, dependencies.Logger)
		if clientError != nil {
			return nil, fmt.Errorf(clientCreationErrorTemplateConstant, NameAPI, clientError)
		}
		return client, nil
	case NameCLI:
		client, clientError := githubcli.NewClient(dependencies.Executor)
		if clientError != nil {
			return nil, fmt.Errorf(clientCreationErrorTemplateConstant, NameCLI, clientError)
		}
		return client, nil
	default:
		return nil, UnsupportedBackendError{Name: configuration.Backend}
	}
}
