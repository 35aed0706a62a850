package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/qaboard/internal/joinlink"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// joinModal shows the session link as text and as a QR code.
type joinModal struct {
	link string
	qr   string
	err  error
}

func newJoinModal(link string) joinModal {
	qr, err := joinlink.RenderQR(link)
	return joinModal{link: link, qr: qr, err: err}
}

func (j joinModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return j, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.CopyLink):
		return j, copyLinkCmd(j.link), false
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.JoinLink), key.Matches(keyMsg, keys.ToggleResolve):
		return j, nil, true
	}
	return j, nil, false
}

func (j joinModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Scan to ask a question"))
	b.WriteString("\n\n")
	switch {
	case j.err != nil:
		b.WriteString(styles.DangerText.Render("QR unavailable: " + j.err.Error()))
	case width < QRMinWidth:
		b.WriteString(styles.MutedText.Render("Widen the terminal to show the QR code."))
	default:
		// Dark modules on a light field, whatever the theme.
		qr := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFFFF")).
			Render(j.qr)
		b.WriteString(qr)
	}
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render(j.link))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("y copy link · esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Align(lipgloss.Center)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
