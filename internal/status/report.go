package status

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/clu/internal/forge"
)

// Report output formats.
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

const (
	reportTitleConstant            = "# Migration Results"
	sectionHeadingTemplateConstant = "## %s"
	errorsHeadingConstant          = "## Errors"
	listItemTemplateConstant       = "- %s"
	errorItemTemplateConstant      = "- %s: %s"
	paragraphSeparatorConstant     = "\n\n"
	lineSeparatorConstant          = "\n"
	lineBreakReplacementConstant   = " "
)

// Report groups pull request permalinks by classification.
type Report struct {
	Sections map[forge.PullStatus][]string
	Failures map[string]error
}

// NewReport returns an empty report.
func NewReport() Report {
	return Report{Sections: map[forge.PullStatus][]string{}, Failures: map[string]error{}}
}

// Add files a classified pull request.
func (report Report) Add(state forge.PullState) {
	report.Sections[state.Status] = append(report.Sections[state.Status], state.Permalink)
}

// Permalinks returns the sorted permalinks classified as status.
func (report Report) Permalinks(status forge.PullStatus) []string {
	permalinks := append([]string{}, report.Sections[status]...)
	sort.Strings(permalinks)
	return permalinks
}

// Markdown renders the report with one heading per classification. An errors section follows when lookups failed.
func (report Report) Markdown() string {
	paragraphs := []string{reportTitleConstant}
	for index, status := range forge.AllPullStatuses() {
		heading := fmt.Sprintf(sectionHeadingTemplateConstant, status.String())
		if index == 0 {
			paragraphs[0] += lineSeparatorConstant + heading
		} else {
			paragraphs = append(paragraphs, heading)
		}
		items := make([]string, 0, len(report.Sections[status]))
		for _, permalink := range report.Permalinks(status) {
			items = append(items, fmt.Sprintf(listItemTemplateConstant, permalink))
		}
		paragraphs = append(paragraphs, strings.Join(items, lineSeparatorConstant))
	}

	if len(report.Failures) > 0 {
		items := make([]string, 0, len(report.Failures))
		for _, name := range report.failedTargets() {
			message := strings.ReplaceAll(report.Failures[name].Error(), lineSeparatorConstant, lineBreakReplacementConstant)
			items = append(items, fmt.Sprintf(errorItemTemplateConstant, name, message))
		}
		paragraphs = append(paragraphs, errorsHeadingConstant, strings.Join(items, lineSeparatorConstant))
	}

	return strings.Join(paragraphs, paragraphSeparatorConstant) + lineSeparatorConstant
}

type yamlReport struct {
	ChecksFailed []string          `yaml:"checks_failed"`
	NotApproved  []string          `yaml:"not_approved"`
	Mergeable    []string          `yaml:"mergeable"`
	Merged       []string          `yaml:"merged"`
	Errors       map[string]string `yaml:"errors,omitempty"`
}

// YAML renders the report as a YAML document.
func (report Report) YAML() (string, error) {
	document := yamlReport{
		ChecksFailed: nonNil(report.Permalinks(forge.PullStatusChecksFailed)),
		NotApproved:  nonNil(report.Permalinks(forge.PullStatusNeedsApproval)),
		Mergeable:    nonNil(report.Permalinks(forge.PullStatusMergeable)),
		Merged:       nonNil(report.Permalinks(forge.PullStatusMerged)),
	}
	if len(report.Failures) > 0 {
		document.Errors = make(map[string]string, len(report.Failures))
		for name, failure := range report.Failures {
			document.Errors[name] = failure.Error()
		}
	}
	encoded, encodeError := yaml.Marshal(document)
	if encodeError != nil {
		return "", encodeError
	}
	return string(encoded), nil
}

func (report Report) failedTargets() []string {
	names := make([]string, 0, len(report.Failures))
	for name := range report.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
