package ui

import (
	"github.com/charmbracelet/glamour"
)

// Cap at 100 chars for readability; wider lines are hard to scan.
const maxReadableWidth = 100

// RenderMarkdown renders markdown text using glamour.
// Returns the original text when colors are disabled or rendering fails.
// Word wraps at terminal width (or 80 columns if width can't be detected).
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}
	return RenderMarkdownWidth(markdown, min(TerminalWidth(80), maxReadableWidth))
}

// RenderMarkdownWidth renders markdown wrapped at width regardless of
// terminal detection.
func RenderMarkdownWidth(markdown string, width int) string {
	// Auto style respects terminal light/dark mode
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
