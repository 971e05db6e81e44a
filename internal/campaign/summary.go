package campaign

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/temirov/clu/internal/filesystem"
)

const (
	errorSummaryLineTemplateConstant = "%s: %s\n"
	lineBreakConstant                = "\n"
	lineBreakReplacementConstant     = " "
	// DefaultErrorSummaryFileName is the summary file written in the launch directory.
	DefaultErrorSummaryFileName = "migration.errors.txt"
)

// ErrorSummary records the failure of every target that did not complete.
type ErrorSummary struct {
	fileSystem filesystem.FileSystem
	path       string
}

// NewErrorSummary constructs a summary writer for path.
func NewErrorSummary(fileSystem filesystem.FileSystem, path string) (*ErrorSummary, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &ErrorSummary{fileSystem: fileSystem, path: path}, nil
}

// Path returns the summary file location.
func (summary *ErrorSummary) Path() string {
	return summary.path
}

// Write replaces the summary file with failures. When failures is empty a summary left by an
// earlier run is removed and false is returned.
func (summary *ErrorSummary) Write(failures map[string]error) (bool, error) {
	if len(failures) == 0 {
		if removeError := summary.fileSystem.Remove(summary.path); removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
			return false, StoreError{Operation: operationRemoveConstant, Path: summary.path, Cause: removeError}
		}
		return false, nil
	}
	if writeError := summary.fileSystem.WriteFile(summary.path, []byte(RenderFailures(failures)), filePermissionsConstant); writeError != nil {
		return false, StoreError{Operation: operationWriteConstant, Path: summary.path, Cause: writeError}
	}
	return true, nil
}

// RenderFailures formats failures as "<target>: <message>" lines ordered by target name.
func RenderFailures(failures map[string]error) string {
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		message := strings.ReplaceAll(failures[name].Error(), lineBreakConstant, lineBreakReplacementConstant)
		builder.WriteString(fmt.Sprintf(errorSummaryLineTemplateConstant, name, message))
	}
	return builder.String()
}
