package cli

import (
	"bytes"
	_ "embed"
)

// defaultConfiguration holds every configuration key clu reads with its built-in value.
//
//go:embed default_config.yaml
var defaultConfiguration []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in defaults and their format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfiguration), configurationTypeConstant
}
