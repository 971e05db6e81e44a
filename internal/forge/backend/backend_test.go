package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/execshell"
	"github.com/temirov/clu/internal/githubapi"
	"github.com/temirov/clu/internal/githubauth"
	"github.com/temirov/clu/internal/githubcli"
)

const (
	apiBackendCaseNameConstant         = "api_backend_with_token"
	apiBackendMissingTokenCaseConstant = "api_backend_without_token"
	cliBackendCaseNameConstant         = "cli_backend"
	cliBackendMissingExecutorConstant  = "cli_backend_without_executor"
	unknownBackendCaseNameConstant     = "unknown_backend"
)

type stubGitHubExecutor struct{}

func (stubGitHubExecutor) ExecuteGitHubCLI(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func emptyLookup(string) (string, bool) {
	return "", false
}

func TestNewClientSelectsBackend(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration Configuration
		dependencies  Dependencies
		assertClient  func(testInstance *testing.T, client any)
		expectedError func(testInstance *testing.T, err error)
	}{
		{
			name:          apiBackendCaseNameConstant,
			configuration: Configuration{Backend: " API ", BaseURL: "https://github.example.com/api/v3"},
			dependencies:  Dependencies{TokenResolver: githubauth.NewTokenResolver(emptyLookup), Token: "secret"},
			assertClient: func(testInstance *testing.T, client any) {
				require.IsType(testInstance, &githubapi.Client{}, client)
			},
		},
		{
			name:          apiBackendMissingTokenCaseConstant,
			configuration: Configuration{Backend: NameAPI},
			dependencies:  Dependencies{TokenResolver: githubauth.NewTokenResolver(emptyLookup)},
			expectedError: func(testInstance *testing.T, err error) {
				var missingToken githubauth.MissingTokenError
				require.True(testInstance, errors.As(err, &missingToken))
			},
		},
		{
			name:          cliBackendCaseNameConstant,
			configuration: Configuration{},
			dependencies:  Dependencies{Executor: stubGitHubExecutor{}},
			assertClient: func(testInstance *testing.T, client any) {
				require.IsType(testInstance, &githubcli.Client{}, client)
			},
		},
		{
			name:          cliBackendMissingExecutorConstant,
			configuration: Configuration{Backend: NameCLI},
			expectedError: func(testInstance *testing.T, err error) {
				require.ErrorIs(testInstance, err, githubcli.ErrExecutorNotConfigured)
			},
		},
		{
			name:          unknownBackendCaseNameConstant,
			configuration: Configuration{Backend: "gitlab"},
			expectedError: func(testInstance *testing.T, err error) {
				require.Equal(testInstance, UnsupportedBackendError{Name: "gitlab"}, err)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, clientError := NewClient(testCase.configuration, testCase.dependencies)
			if testCase.expectedError != nil {
				require.Error(testInstance, clientError)
				require.Nil(testInstance, client)
				testCase.expectedError(testInstance, clientError)
				return
			}
			require.NoError(testInstance, clientError)
			testCase.assertClient(testInstance, client)
		})
	}
}

func TestConfigurationSanitizeDefaultsBackend(testInstance *testing.T) {
	require.Equal(testInstance, Configuration{Backend: NameCLI}, Configuration{Backend: "  "}.Sanitize())
	require.Equal(testInstance, DefaultConfiguration(), Configuration{}.Sanitize())
}
