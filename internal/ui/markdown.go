package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const (
	defaultMarkdownWrapWidthConstant = 80
	maximumMarkdownWrapWidthConstant = 100
)

// IsTerminal reports whether writer is attached to an interactive terminal.
func IsTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// RenderMarkdown renders markdown for terminal display, returning the input unchanged when writer is not a terminal or rendering fails.
func RenderMarkdown(writer io.Writer, markdown string) string {
	if !IsTerminal(writer) {
		return markdown
	}

	wrapWidth := defaultMarkdownWrapWidthConstant
	if file, isFile := writer.(*os.File); isFile {
		if width, _, sizeError := term.GetSize(int(file.Fd())); sizeError == nil && width > 0 {
			wrapWidth = width
		}
	}
	if wrapWidth > maximumMarkdownWrapWidthConstant {
		wrapWidth = maximumMarkdownWrapWidthConstant
	}

	renderer, rendererError := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if rendererError != nil {
		return markdown
	}

	rendered, renderError := renderer.Render(markdown)
	if renderError != nil {
		return markdown
	}
	return rendered
}
