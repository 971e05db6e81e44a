package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/utils"
)

const (
	testEnvironmentPrefixConstant      = "TESTCLU"
	testConfigurationNameConstant      = "config"
	testConfigurationTypeConstant      = "yaml"
	testConfigFileNameConstant         = "config.yaml"
	testEmbeddedConfigurationConstant  = "migration:\n  definition: embedded.toml\n  concurrency: 2\n"
	testFileConfigurationConstant      = "migration:\n  concurrency: 5\n"
	testConcurrencyEnvironmentConstant = "TESTCLU_MIGRATION_CONCURRENCY"
	testEnvironmentFilesVariable       = "TESTCLU_COMMON_ENV_FILES"
	testDefaultDefinitionConstant      = "migration.toml"
	testCaseDefaultsOnlyConstant       = "defaults only"
	testCaseEmbeddedOverDefaults       = "embedded over defaults"
	testCaseFileOverEmbedded           = "file over embedded"
	testCaseEnvironmentOverFile        = "environment over file"
	testCaseWorkingDirectoryConstant   = "found in first search path"
	testCaseHomeDirectoryConstant      = "found in second search path"
)

type migrationSectionFixture struct {
	Definition  string `mapstructure:"definition"`
	Concurrency int    `mapstructure:"concurrency"`
}

type configurationFixture struct {
	Common struct {
		EnvironmentFiles []string `mapstructure:"env_files"`
	} `mapstructure:"common"`
	Migration migrationSectionFixture `mapstructure:"migration"`
}

func fixtureDefaults() map[string]any {
	return map[string]any{
		"common.env_files":      []string{},
		"migration.definition":  testDefaultDefinitionConstant,
		"migration.concurrency": 3,
	}
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name              string
		embedded          string
		fileContent       string
		environmentValue  string
		expectedMigration migrationSectionFixture
		expectEmbedded    bool
	}{
		{
			name:              testCaseDefaultsOnlyConstant,
			expectedMigration: migrationSectionFixture{Definition: testDefaultDefinitionConstant, Concurrency: 3},
		},
		{
			name:              testCaseEmbeddedOverDefaults,
			embedded:          testEmbeddedConfigurationConstant,
			expectedMigration: migrationSectionFixture{Definition: "embedded.toml", Concurrency: 2},
			expectEmbedded:    true,
		},
		{
			name:              testCaseFileOverEmbedded,
			embedded:          testEmbeddedConfigurationConstant,
			fileContent:       testFileConfigurationConstant,
			expectedMigration: migrationSectionFixture{Definition: "embedded.toml", Concurrency: 5},
			expectEmbedded:    true,
		},
		{
			name:              testCaseEnvironmentOverFile,
			embedded:          testEmbeddedConfigurationConstant,
			fileContent:       testFileConfigurationConstant,
			environmentValue:  "9",
			expectedMigration: migrationSectionFixture{Definition: "embedded.toml", Concurrency: 9},
			expectEmbedded:    true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationFilePath := ""
			if len(testCase.fileContent) > 0 {
				configurationFilePath = filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testCase.fileContent), 0o600))
			}
			if len(testCase.environmentValue) > 0 {
				testInstance.Setenv(testConcurrencyEnvironmentConstant, testCase.environmentValue)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
			configurationLoader.SetEmbeddedConfiguration([]byte(testCase.embedded), testConfigurationTypeConstant)

			loaded := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, fixtureDefaults(), &loaded)

			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedMigration, loaded.Migration)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			require.Equal(testInstance, testCase.expectEmbedded, metadata.EmbeddedDefaultsApplied)
		})
	}
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	testCases := []struct {
		name        string
		selectIndex int
	}{
		{name: testCaseWorkingDirectoryConstant, selectIndex: 0},
		{name: testCaseHomeDirectoryConstant, selectIndex: 1},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			searchPaths := []string{testInstance.TempDir(), filepath.Join(testInstance.TempDir(), ".clu")}
			require.NoError(testInstance, os.MkdirAll(searchPaths[1], 0o755))
			configurationFilePath := filepath.Join(searchPaths[testCase.selectIndex], testConfigFileNameConstant)
			require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testFileConfigurationConstant), 0o600))

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, searchPaths)
			loaded := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration("", fixtureDefaults(), &loaded)

			require.NoError(testInstance, loadError)
			require.Equal(testInstance, 5, loaded.Migration.Concurrency)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDecodesCommaSeparatedEnvironmentLists(testInstance *testing.T) {
	testInstance.Setenv(testEnvironmentFilesVariable, "first.env,second.env")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	loaded := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", fixtureDefaults(), &loaded)

	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"first.env", "second.env"}, loaded.Common.EnvironmentFiles)
	require.False(testInstance, metadata.EmbeddedDefaultsApplied)
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	configurationLoader.SetEmbeddedConfiguration([]byte(testEmbeddedConfigurationConstant), testConfigurationTypeConstant)
	_, loadError := configurationLoader.LoadConfiguration(missingPath, fixtureDefaults(), &configurationFixture{})

	require.Error(testInstance, loadError)
	require.ErrorContains(testInstance, loadError, missingPath)
}
