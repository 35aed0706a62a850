package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bar renders a full-width header or footer line on the theme's surface
// color. lipgloss resets after each styled segment, so every space between
// segments is styled as well or the terminal background shows through.
type bar struct {
	styles Styles
	fill   lipgloss.Style
}

func newBar(theme Theme) bar {
	return bar{
		styles: theme.Styles().WithBackground(theme.Surface),
		fill:   lipgloss.NewStyle().Background(lipgloss.Color(theme.Surface)),
	}
}

// text renders s one word at a time so inner spaces keep the surface color.
// style should come from b.styles.
func (b bar) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.pad(1))
}

func (b bar) pad(n int) string {
	if n < 1 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

func (b bar) join(parts []string, sep string) string {
	return strings.Join(parts, b.fill.Render(sep))
}

// line places left and right at the edges of a width-wide line.
func (b bar) line(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + b.pad(1) + right
	}
	return left + b.pad(gap) + right
}
