package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultEnvironmentFileName is read from the launch directory when present.
	DefaultEnvironmentFileName = ".env"

	environmentFileReadErrorTemplateConstant  = "failed to read environment file %s: %w"
	environmentFileApplyErrorTemplateConstant = "failed to apply %s from %s: %w"
)

// EnvironmentSetter abstracts process environment mutation.
type EnvironmentSetter interface {
	LookupEnv(key string) (string, bool)
	Setenv(key string, value string) error
}

// ProcessEnvironment manipulates the real process environment.
type ProcessEnvironment struct{}

// LookupEnv delegates to os.LookupEnv.
func (ProcessEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Setenv delegates to os.Setenv.
func (ProcessEnvironment) Setenv(key string, value string) error {
	return os.Setenv(key, value)
}

// EnvironmentFileLoader copies dotenv assignments into the environment without replacing variables that are already set.
type EnvironmentFileLoader struct {
	environment EnvironmentSetter
}

// NewEnvironmentFileLoader constructs a loader; a nil environment targets the process environment.
func NewEnvironmentFileLoader(environment EnvironmentSetter) EnvironmentFileLoader {
	if environment == nil {
		environment = ProcessEnvironment{}
	}
	return EnvironmentFileLoader{environment: environment}
}

// Load applies every file in order and returns the paths that were read.
// Missing files are skipped unless required is set.
func (loader EnvironmentFileLoader) Load(filePaths []string, required bool) ([]string, error) {
	loadedPaths := make([]string, 0, len(filePaths))
	for _, filePath := range filePaths {
		trimmedPath := strings.TrimSpace(filePath)
		if len(trimmedPath) == 0 {
			continue
		}

		assignments, readError := godotenv.Read(trimmedPath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) && !required {
				continue
			}
			return loadedPaths, fmt.Errorf(environmentFileReadErrorTemplateConstant, trimmedPath, readError)
		}

		for key, value := range assignments {
			if _, alreadySet := loader.environment.LookupEnv(key); alreadySet {
				continue
			}
			if setError := loader.environment.Setenv(key, value); setError != nil {
				return loadedPaths, fmt.Errorf(environmentFileApplyErrorTemplateConstant, key, trimmedPath, setError)
			}
		}
		loadedPaths = append(loadedPaths, trimmedPath)
	}
	return loadedPaths, nil
}
