package migrate

import (
	"strings"

	"github.com/temirov/clu/internal/campaign"
	"github.com/temirov/clu/internal/scheduler"
)

// DefaultWorkDirectory holds one workspace per target.
const DefaultWorkDirectory = "work-dir"

// CommandConfiguration captures persisted configuration for campaign runs.
type CommandConfiguration struct {
	DefinitionPath   string `mapstructure:"definition"`
	WorkDirectory    string `mapstructure:"work_directory"`
	Concurrency      int    `mapstructure:"concurrency"`
	ErrorSummaryPath string `mapstructure:"error_summary"`
}

// DefaultCommandConfiguration returns baseline configuration values for campaign runs.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DefinitionPath:   campaign.DefaultDefinitionPath,
		WorkDirectory:    DefaultWorkDirectory,
		Concurrency:      scheduler.DefaultConcurrency,
		ErrorSummaryPath: campaign.DefaultErrorSummaryFileName,
	}
}

// Sanitize trims configured values and restores defaults for empty or out-of-range entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.DefinitionPath = valueOrDefault(sanitized.DefinitionPath, defaults.DefinitionPath)
	sanitized.WorkDirectory = valueOrDefault(sanitized.WorkDirectory, defaults.WorkDirectory)
	sanitized.ErrorSummaryPath = valueOrDefault(sanitized.ErrorSummaryPath, defaults.ErrorSummaryPath)
	if sanitized.Concurrency < 1 {
		sanitized.Concurrency = defaults.Concurrency
	}
	return sanitized
}

// CampaignConfiguration exposes the definition path to the init command.
func (configuration CommandConfiguration) CampaignConfiguration() campaign.CommandConfiguration {
	return campaign.CommandConfiguration{DefinitionPath: configuration.DefinitionPath}.Sanitize()
}

// DefaultConfigurationValues returns the viper defaults for the configuration section rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".definition":     defaults.DefinitionPath,
		prefix + ".work_directory": defaults.WorkDirectory,
		prefix + ".concurrency":    defaults.Concurrency,
		prefix + ".error_summary":  defaults.ErrorSummaryPath,
	}
}

func valueOrDefault(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}
