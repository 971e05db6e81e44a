package followup

import "strings"

// DefaultWorkDirectory holds one workspace per followed-up target.
const DefaultWorkDirectory = "follow-up-dir"

// CommandConfiguration captures persisted configuration for follow-up runs.
type CommandConfiguration struct {
	WorkDirectory string `mapstructure:"work_directory"`
}

// DefaultCommandConfiguration returns baseline configuration values for follow-up runs.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{WorkDirectory: DefaultWorkDirectory}
}

// Sanitize trims the work directory and restores the default when it is empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.WorkDirectory = strings.TrimSpace(sanitized.WorkDirectory)
	if len(sanitized.WorkDirectory) == 0 {
		sanitized.WorkDirectory = DefaultWorkDirectory
	}
	return sanitized
}

// DefaultConfigurationValues returns the viper defaults for the configuration section rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + ".work_directory": DefaultWorkDirectory,
	}
}
