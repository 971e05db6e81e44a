package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant         = "."
	environmentKeySeparatorNewConstant         = "_"
	environmentListSeparatorConstant           = ","
	configurationReadErrorTemplateConstant     = "failed to read configuration %s: %w"
	configurationDecodeErrorTemplateConstant   = "failed to parse configuration: %w"
	embeddedConfigurationErrorTemplateConstant = "failed to merge embedded configuration: %w"
	searchedConfigurationDescriptionConstant   = "from search paths"
)

// ConfigurationLoader layers embedded defaults, an optional YAML file, and CLU_ environment
// variables into one configuration struct.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
	// EmbeddedDefaultsApplied reports whether built-in defaults were merged.
	EmbeddedDefaultsApplied bool
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string{}, searchPaths...),
	}
}

// SetEmbeddedConfiguration stores configuration merged below any file found on disk.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	if len(configurationData) == 0 {
		loader.embeddedConfiguration = nil
		return
	}
	loader.embeddedConfiguration = append([]byte{}, configurationData...)
}

// LoadConfiguration populates targetConfiguration. Precedence from lowest to highest is
// defaultValues, embedded configuration, the configuration file, and environment variables.
// An explicit configurationFilePath must exist; a file missing from the search paths is ignored.
// Comma separated environment values decode into string slices.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	loaded := LoadedConfiguration{}
	if len(loader.embeddedConfiguration) > 0 {
		if mergeError := loader.mergeEmbedded(viperInstance); mergeError != nil {
			return LoadedConfiguration{}, mergeError
		}
		loaded.EmbeddedDefaultsApplied = true
	}

	viperInstance.SetConfigType(loader.configurationType)
	if trimmedPath := strings.TrimSpace(configurationFilePath); len(trimmedPath) > 0 {
		viperInstance.SetConfigFile(trimmedPath)
	} else {
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
	}
	if readError := viperInstance.MergeInConfig(); readError != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFound) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, describeConfigurationSource(configurationFilePath), readError)
		}
	}

	loader.bindEnvironment(viperInstance)

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(environmentListSeparatorConstant),
	))
	if decodeError := viperInstance.Unmarshal(targetConfiguration, decodeHook); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	loaded.ConfigFileUsed = viperInstance.ConfigFileUsed()
	return loaded, nil
}

func (loader *ConfigurationLoader) mergeEmbedded(viperInstance *viper.Viper) error {
	embeddedType := loader.embeddedConfigurationType
	if len(embeddedType) == 0 {
		embeddedType = loader.configurationType
	}
	viperInstance.SetConfigType(embeddedType)
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
		return fmt.Errorf(embeddedConfigurationErrorTemplateConstant, mergeError)
	}
	return nil
}

// bindEnvironment maps nested keys such as migration.concurrency to CLU_MIGRATION_CONCURRENCY.
func (loader *ConfigurationLoader) bindEnvironment(viperInstance *viper.Viper) {
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant))
	viperInstance.AutomaticEnv()
}

func describeConfigurationSource(configurationFilePath string) string {
	if trimmed := strings.TrimSpace(configurationFilePath); len(trimmed) > 0 {
		return trimmed
	}
	return searchedConfigurationDescriptionConstant
}
