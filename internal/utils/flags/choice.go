package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	choicePlaceholderPrefixConstant   = "<"
	choicePlaceholderSuffixConstant   = ">"
	choiceSeparatorConstant           = "|"
	choiceUsageTemplateConstant       = "`%s` %s"
	unsupportedChoiceTemplateConstant = "unsupported value %q for --%s; expected one of %s"
	choiceListSeparatorConstant       = ", "
)

// UnsupportedChoiceError reports a flag value outside the accepted set.
type UnsupportedChoiceError struct {
	FlagName string
	Value    string
	Choices  []string
}

// Error lists the accepted values.
func (choiceError UnsupportedChoiceError) Error() string {
	return fmt.Sprintf(unsupportedChoiceTemplateConstant, choiceError.Value, choiceError.FlagName, strings.Join(choiceError.Choices, choiceListSeparatorConstant))
}

// ChoiceFlag is a string flag restricted to a fixed set of lower-case values.
type ChoiceFlag struct {
	Name        string
	Default     string
	Choices     []string
	Description string
}

// Usage renders the choices with the default upper-cased, for example "`<MARKDOWN|yaml>` Report format".
func (choice ChoiceFlag) Usage() string {
	highlighted := make([]string, 0, len(choice.Choices))
	for _, value := range choice.Choices {
		if strings.EqualFold(value, choice.Default) {
			value = strings.ToUpper(value)
		}
		highlighted = append(highlighted, value)
	}
	placeholder := choicePlaceholderPrefixConstant + strings.Join(highlighted, choiceSeparatorConstant) + choicePlaceholderSuffixConstant
	return fmt.Sprintf(choiceUsageTemplateConstant, placeholder, choice.Description)
}

// Bind registers the flag on command.
func (choice ChoiceFlag) Bind(command *cobra.Command) {
	if command == nil || command.Flags().Lookup(choice.Name) != nil {
		return
	}
	command.Flags().String(choice.Name, choice.Default, choice.Usage())
}

// Resolve picks the flag value when it was set, otherwise configured, otherwise the default,
// and validates the result against the choices.
func (choice ChoiceFlag) Resolve(command *cobra.Command, configured string) (string, error) {
	value := StringValue(command, choice.Name, configured)
	if len(value) == 0 {
		value = choice.Default
	}
	normalized := strings.ToLower(value)
	for _, accepted := range choice.Choices {
		if normalized == accepted {
			return normalized, nil
		}
	}
	return "", UnsupportedChoiceError{FlagName: choice.Name, Value: value, Choices: append([]string{}, choice.Choices...)}
}
