package execshell

import (
	"strings"

	"github.com/google/shlex"
)

const (
	shellWordSeparatorConstant      = " "
	shellEmptyWordConstant          = "''"
	shellSingleQuoteConstant        = "'"
	shellEscapedSingleQuoteConstant = `'\''`
	shellSafeCharactersConstant     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"
)

// SplitShellWords splits commandLine into words the way /bin/sh would, honouring quotes and escapes.
func SplitShellWords(commandLine string) ([]string, error) {
	return shlex.Split(commandLine)
}

// QuoteShellWord returns word in a form /bin/sh reads back as exactly one word.
// Words made only of safe characters are returned unchanged.
func QuoteShellWord(word string) string {
	if len(word) == 0 {
		return shellEmptyWordConstant
	}
	if strings.Trim(word, shellSafeCharactersConstant) == "" {
		return word
	}
	return shellSingleQuoteConstant + strings.ReplaceAll(word, shellSingleQuoteConstant, shellEscapedSingleQuoteConstant) + shellSingleQuoteConstant
}

// JoinShellWords quotes every word and joins them into one command line.
func JoinShellWords(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, word := range words {
		quoted = append(quoted, QuoteShellWord(word))
	}
	return strings.Join(quoted, shellWordSeparatorConstant)
}
