package campaign

import (
	"errors"
	"fmt"
	"strings"
)

const (
	fileSystemNotConfiguredMessageConstant = "campaign store file system not configured"
	unknownTargetTemplateConstant          = "unknown target %q"
	validationErrorTemplateConstant        = "invalid campaign definition: %s"
	validationProblemSeparatorConstant     = "; "
	storeErrorTemplateConstant             = "%s %s: %v"
	definitionExistsTemplateConstant       = "%s already exists; pass --force to overwrite it"
)

// ErrFileSystemNotConfigured indicates a store or summary was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// UnknownTargetError reports a target name that is not present in the campaign.
type UnknownTargetError struct {
	Name string
}

// Error names the missing target.
func (unknownError UnknownTargetError) Error() string {
	return fmt.Sprintf(unknownTargetTemplateConstant, unknownError.Name)
}

// ValidationError lists every problem found in a campaign file.
type ValidationError struct {
	Problems []string
}

// Error joins the problems into one line.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorTemplateConstant, strings.Join(validationError.Problems, validationProblemSeparatorConstant))
}

// StoreError reports a failed read, decode, encode, or write of the campaign file.
type StoreError struct {
	Operation string
	Path      string
	Cause     error
}

// Error describes the failed store operation.
func (storeError StoreError) Error() string {
	return fmt.Sprintf(storeErrorTemplateConstant, storeError.Operation, storeError.Path, storeError.Cause)
}

// Unwrap exposes the underlying cause.
func (storeError StoreError) Unwrap() error {
	return storeError.Cause
}

// DefinitionExistsError prevents init from replacing an existing campaign file.
type DefinitionExistsError struct {
	Path string
}

// Error suggests the overwrite flag.
func (existsError DefinitionExistsError) Error() string {
	return fmt.Sprintf(definitionExistsTemplateConstant, existsError.Path)
}
