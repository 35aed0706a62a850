package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const (
	helpWidth    = 44
	helpKeyWidth = 10
)

// helpGroups mirrors FullHelp with a heading per row of bindings.
func (k keyMap) helpGroups() []helpGroup {
	rows := k.FullHelp()
	titles := []string{"Asking", "Moving around", "Moderating", "Sharing the board", "Board"}
	groups := make([]helpGroup, 0, len(rows))
	for i, row := range rows {
		title := ""
		if i < len(titles) {
			title = titles[i]
		}
		groups = append(groups, helpGroup{title: title, bindings: row})
	}
	return groups
}

type helpGroup struct {
	title    string
	bindings []key.Binding
}

// renderHelp draws the shortcut overlay centered over the board.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(helpKeyWidth)

	var lines []string
	lines = append(lines, styles.Text.Bold(true).Render("Presenter shortcuts"))
	if m.sessionName != "" {
		lines = append(lines, styles.FaintText.Render(m.sessionName))
	}

	for _, group := range m.keys.helpGroups() {
		lines = append(lines, "", styles.AccentText.Bold(true).Render(group.title))
		for _, b := range group.bindings {
			if !b.Enabled() {
				continue
			}
			h := b.Help()
			lines = append(lines, keyStyle.Render(h.Key)+styles.Text.Render(h.Desc))
		}
	}
	lines = append(lines, "", styles.FaintText.Render("press any key to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(helpWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
