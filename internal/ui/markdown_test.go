package ui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clu/internal/ui"
)

const testMarkdownDocumentConstant = "# Migration Results\n\n## Merged\n\n- https://github.com/acme/widgets/pull/1\n"

func TestRenderMarkdownReturnsInputForNonTerminalWriters(testInstance *testing.T) {
	var buffer bytes.Buffer

	require.False(testInstance, ui.IsTerminal(&buffer))
	require.Equal(testInstance, testMarkdownDocumentConstant, ui.RenderMarkdown(&buffer, testMarkdownDocumentConstant))
}
