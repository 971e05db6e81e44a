package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestChoiceFlagUsageHighlightsDefault(t *testing.T) {
	testCases := []struct {
		name           string
		choice         ChoiceFlag
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			choice:         ChoiceFlag{Name: "format", Default: "markdown", Choices: []string{"markdown", "yaml"}, Description: "Report format"},
			expectedOutput: "`<MARKDOWN|yaml>` Report format",
		},
		{
			name:           "DefaultSecondChoice",
			choice:         ChoiceFlag{Name: "forge", Default: "cli", Choices: []string{"api", "cli"}, Description: "Forge backend"},
			expectedOutput: "`<api|CLI>` Forge backend",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, testCase.choice.Usage())
		})
	}
}

func TestChoiceFlagResolve(t *testing.T) {
	choice := ChoiceFlag{Name: "format", Default: "markdown", Choices: []string{"markdown", "yaml"}}

	command := &cobra.Command{}
	choice.Bind(command)

	resolved, resolveError := choice.Resolve(command, "")
	require.NoError(t, resolveError)
	require.Equal(t, "markdown", resolved)

	resolved, resolveError = choice.Resolve(command, "YAML")
	require.NoError(t, resolveError)
	require.Equal(t, "yaml", resolved)

	require.NoError(t, command.ParseFlags([]string{"--format", "json"}))
	_, resolveError = choice.Resolve(command, "yaml")
	require.IsType(t, UnsupportedChoiceError{}, resolveError)
	require.EqualError(t, resolveError, `unsupported value "json" for --format; expected one of markdown, yaml`)
}
