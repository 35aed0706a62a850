package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/qaboard/internal/feed"
	"github.com/five82/qaboard/internal/state"
)

// Feed state texts.
const (
	loadingText = "Loading questions..."
	errorText   = "Could not load questions. Press r to retry."
	emptyText   = "No questions yet"
)

// renderMain renders the full board.
func (m Model) renderMain() string {
	parts := []string{
		m.renderHeader(),
		m.renderInput(),
		m.renderFeed(),
		m.renderToasts(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	b := newBar(m.theme)
	styles := b.styles

	left := []string{b.text("Q&A", styles.Logo)}
	if m.sessionName != "" && m.width >= LayoutCompactWidth {
		left = append(left, b.text(m.sessionName, styles.Text))
	}

	dotStyle := styles.SuccessText
	label := "Live"
	if !m.connected {
		dotStyle = styles.DangerText
		label = "Disconnected"
	}
	right := []string{}
	if m.snapshot.Fetching {
		right = append(right, b.text(m.spinner.View()+" syncing", styles.MutedText))
	}
	right = append(right, b.text("●", dotStyle)+b.pad(1)+b.text(label, styles.MutedText))

	return b.line(b.pad(1)+b.join(left, " · "), b.join(right, "  ")+b.pad(1), m.width)
}

func (m Model) renderInput() string {
	styles := m.theme.Styles()

	label := styles.AccentText.Bold(true).Render("Ask a question")
	switch {
	case m.creating:
		label += styles.MutedText.Render("  " + m.spinner.View() + " sending...")
	case m.focus == focusInput:
		label += styles.FaintText.Render("  ctrl+s to send · tab for the feed")
	default:
		label += styles.FaintText.Render("  tab to type")
	}

	border := m.theme.Border
	if m.focus == focusInput {
		border = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(m.width - 2)
	return box.Render(label + "\n" + m.input.View())
}

func (m Model) renderFeed() string {
	border := m.theme.Border
	if m.focus == focusFeed {
		border = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(m.width - 2)
	return box.Render(m.feedView.View())
}

// feedState returns the placeholder text for non-list states, or "" when the
// list should be shown.
func (m Model) feedState() string {
	switch m.snapshot.Status {
	case state.StatusLoading:
		return m.spinner.View() + " " + loadingText
	case state.StatusError:
		return errorText
	}
	if len(m.items) == 0 {
		return emptyText
	}
	return ""
}

// refreshFeedView re-renders the feed content and keeps the selection visible.
func (m *Model) refreshFeedView() {
	if m.feedView.Width <= 0 {
		return
	}
	styles := m.theme.Styles()

	if text := m.feedState(); text != "" {
		style := styles.MutedText
		if m.snapshot.Status == state.StatusError {
			style = styles.DangerText
		}
		m.feedView.SetContent(style.Render(text))
		m.feedView.GotoTop()
		return
	}

	var b strings.Builder
	line := 0
	selStart, selEnd := 0, 0
	for i, it := range m.items {
		block := m.renderItem(it, i == m.selected)
		if i == m.selected {
			selStart = line
			selEnd = line + lipgloss.Height(block)
		}
		b.WriteString(block)
		b.WriteString("\n")
		line += lipgloss.Height(block) + 1
	}
	m.feedView.SetContent(strings.TrimRight(b.String(), "\n"))

	if selStart < m.feedView.YOffset {
		m.feedView.SetYOffset(selStart)
	} else if selEnd > m.feedView.YOffset+m.feedView.Height {
		m.feedView.SetYOffset(selEnd - m.feedView.Height)
	}
}

func (m Model) renderItem(it feed.Item, selected bool) string {
	styles := m.theme.Styles()

	status := "open"
	if it.Resolved {
		status = "resolved"
	}
	meta := []string{
		styles.MutedText.Render(it.DisplayTime()),
		styles.StatusStyle(status).Render(it.StatusLabel()),
	}
	if it.IsNew {
		meta = append(meta, styles.StatusStyle("new").Bold(true).Render("NEW"))
	}
	action := it.ActionLabel()
	if it.ID == m.togglingID {
		action = m.spinner.View() + " saving..."
	}
	if selected {
		meta = append(meta, styles.AccentText.Render("["+action+"]"))
	}

	marker := "  "
	if selected {
		marker = styles.AccentText.Render("▸ ")
	}

	width := m.feedView.Width - 2
	if width < 10 {
		width = 10
	}
	body := lipgloss.NewStyle().Width(width)
	if it.Resolved {
		body = body.Foreground(lipgloss.Color(m.theme.Muted)).Strikethrough(true)
	} else {
		body = body.Foreground(lipgloss.Color(m.theme.Text))
	}
	content := body.Render(it.Content)
	content = lipgloss.NewStyle().PaddingLeft(2).Render(content)

	return marker + strings.Join(meta, " ") + "\n" + content
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	t := m.toasts[len(m.toasts)-1]
	style := styles.InfoText
	switch t.kind {
	case toastSuccess:
		style = styles.SuccessText
	case toastError:
		style = styles.DangerText
	}
	text := t.text
	if n := len(m.toasts) - 1; n > 0 {
		text = fmt.Sprintf("%s (+%d)", text, n)
	}
	return " " + style.Render(text)
}

func (m Model) renderFooter() string {
	b := newBar(m.theme)
	summary := feed.Summary(m.items)
	if m.snapshot.Status == state.StatusReady && len(m.items) > 0 {
		summary = fmt.Sprintf("%s · %d resolved", summary, feed.CountResolved(m.items))
	}
	left := b.pad(1) + b.text(summary, b.styles.MutedText)
	help := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.width-lipgloss.Width(left)-lipgloss.Width(help)-1 < 1 {
		return left
	}
	return b.line(left, help+b.pad(1), m.width)
}

// Toasts

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

type toastExpiredMsg int

// pushToast shows a notification and schedules its removal.
func (m *Model) pushToast(kind toastKind, text string) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, kind: kind, text: text})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg(id)
	})
}

func (m *Model) dropToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}
