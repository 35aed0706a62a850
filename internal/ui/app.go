package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/qaboard/internal/feed"
	"github.com/five82/qaboard/internal/gateway"
	"github.com/five82/qaboard/internal/health"
	"github.com/five82/qaboard/internal/highlight"
	"github.com/five82/qaboard/internal/joinlink"
	"github.com/five82/qaboard/internal/mutation"
	"github.com/five82/qaboard/internal/prefs"
	"github.com/five82/qaboard/internal/state"
)

type focusArea int

const (
	focusFeed focusArea = iota
	focusInput
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Cache       *state.Cache
	Mutations   *mutation.Coordinator
	Monitor     *health.Monitor
	Highlight   *highlight.Tracker
	SessionName string
	JoinURL     string
	Location    *time.Location
	Prefs       prefs.Prefs
	PrefsPath   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx       context.Context
	cache     *state.Cache
	mutations *mutation.Coordinator
	monitor   *health.Monitor
	tracker   *highlight.Tracker

	// Configuration
	sessionName string
	joinURL     string
	loc         *time.Location
	prefs       prefs.Prefs
	prefsPath   string

	// UI state
	keys     keyMap
	help     help.Model
	theme    Theme
	width    int
	height   int
	ready    bool
	focus    focusArea
	showHelp bool
	modal    Modal

	input    textarea.Model
	feedView viewport.Model
	spinner  spinner.Model

	// Data state
	snapshot     state.Snapshot
	items        []feed.Item
	selected     int
	connected    bool
	lastFailures int

	// In-flight mutations, set before the command runs so a repeated key
	// press is ignored.
	creating   bool
	togglingID string

	// A created question waiting to appear in a ready snapshot before the
	// highlight is armed. An empty awaitingID matches the next fresh one.
	awaitingNew bool
	awaitingID  string

	toasts    []toast
	nextToast int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	loc := opts.Location
	if loc == nil {
		loc = opts.Prefs.Location()
	}

	themeName := opts.Prefs.Theme
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	joinURL := opts.JoinURL
	if joinURL == "" {
		joinURL = joinlink.DefaultSessionURL
	}

	input := textarea.New()
	input.Placeholder = "Type a question for the speaker..."
	input.ShowLineNumbers = false
	input.CharLimit = 1000
	input.SetHeight(InputHeight)

	m := Model{
		ctx:         ctx,
		cache:       opts.Cache,
		mutations:   opts.Mutations,
		monitor:     opts.Monitor,
		tracker:     opts.Highlight,
		sessionName: opts.SessionName,
		joinURL:     joinURL,
		loc:         loc,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(themeName),
		focus:       focusFeed,
		input:       input,
		feedView:    viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		connected:   true,
	}
	if m.cache != nil {
		m.snapshot = m.cache.Snapshot()
	}
	if m.monitor != nil {
		m.connected = m.monitor.Connected()
	}
	m.rebuildFeed()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.listen(signalCache),
		m.listen(signalHealth),
		m.listen(signalHighlight),
		m.listen(signalMutation),
	}
	if m.cache != nil {
		cmds = append(cmds, fetchCmd(m.ctx, m.cache))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case snapshotMsg:
		return m, m.applySnapshot(state.Snapshot(msg))

	case signalMsg:
		return m.handleSignal(signalSource(msg))

	case createdMsg:
		return m.handleCreated(msg)

	case toggledMsg:
		return m.handleToggled(msg)

	case copiedMsg:
		if msg.err != nil {
			return m, m.pushToast(toastError, "Could not copy link: "+msg.err.Error())
		}
		return m, m.pushToast(toastSuccess, "Join link copied")

	case toastExpiredMsg:
		m.dropToast(int(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snapshot.Status == state.StatusLoading || m.togglingID != "" {
			m.refreshFeedView()
		}
		return m, cmd
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}
	return m.handleFeedKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Escape):
		m.focus = focusFeed
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	// The input is read-only while a submission is in flight.
	if m.creating {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.refreshFeedView()
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			log.Printf("save prefs: %v", err)
			return m, m.pushToast(toastError, "Could not save theme preference")
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(m.selected - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(m.selected + 1)
	case key.Matches(msg, m.keys.Top):
		m.moveSelection(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveSelection(len(m.items) - 1)

	case key.Matches(msg, m.keys.ToggleResolve):
		return m.toggleSelected()

	case key.Matches(msg, m.keys.Refresh):
		if m.cache != nil {
			m.cache.Invalidate()
		}
		return m, nil

	case key.Matches(msg, m.keys.JoinLink):
		m.modal = newJoinModal(m.joinURL)
		return m, nil

	case key.Matches(msg, m.keys.CopyLink):
		return m, copyLinkCmd(m.joinURL)
	}
	return m, nil
}

// submit sends the typed question. Blank input never leaves the board.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.creating || m.mutations == nil {
		return m, nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, m.pushToast(toastInfo, "Type a question first")
	}
	m.creating = true
	return m, createCmd(m.ctx, m.mutations, text)
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	m.creating = false
	if msg.err != nil {
		log.Printf("create question: %v", msg.err)
		return m, m.pushToast(toastError, "Could not submit question: "+describeError(msg.err))
	}
	m.input.Reset()
	m.awaitingNew = true
	m.awaitingID = string(msg.question.ID)
	if m.cache != nil {
		m.snapshot = m.cache.Snapshot()
	}
	m.armIfCreatedArrived()
	m.rebuildFeed()
	m.moveSelection(0)
	return m, m.pushToast(toastSuccess, "Question submitted")
}

func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	if m.togglingID != "" || m.mutations == nil {
		return m, nil
	}
	if m.selected < 0 || m.selected >= len(m.items) {
		return m, nil
	}
	item := m.items[m.selected]
	m.togglingID = item.ID
	m.refreshFeedView()
	return m, toggleCmd(m.ctx, m.mutations, item.ID, item.Resolved)
}

func (m Model) handleToggled(msg toggledMsg) (tea.Model, tea.Cmd) {
	m.togglingID = ""
	m.refreshFeedView()
	if msg.err != nil {
		log.Printf("toggle question %s: %v", msg.id, msg.err)
		return m, m.pushToast(toastError, "Could not update question: "+describeError(msg.err))
	}
	return m, nil
}

func (m Model) handleSignal(src signalSource) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch src {
	case signalCache:
		if m.cache != nil {
			cmds = append(cmds, m.applySnapshot(m.cache.Snapshot()))
		}
	case signalHealth:
		if m.monitor != nil {
			m.connected = m.monitor.Connected()
		}
	case signalHighlight:
		m.rebuildFeed()
	case signalMutation:
		// Pending flags only affect rendering.
	}
	cmds = append(cmds, m.listen(src))
	return m, tea.Batch(cmds...)
}

// applySnapshot adopts a cache snapshot and announces new fetch failures.
func (m *Model) applySnapshot(snap state.Snapshot) tea.Cmd {
	m.snapshot = snap
	var cmd tea.Cmd
	if snap.ConsecutiveFailures > m.lastFailures && snap.LastError != nil {
		cmd = m.pushToast(toastError, "Could not load questions: "+describeError(snap.LastError))
	}
	m.lastFailures = snap.ConsecutiveFailures
	m.armIfCreatedArrived()
	m.rebuildFeed()
	return cmd
}

// armIfCreatedArrived starts the highlight once the refetch that follows a
// create has landed, so the badge lands on the newest item rather than the
// one that was on top before the submit.
func (m *Model) armIfCreatedArrived() {
	if !m.awaitingNew || m.snapshot.Status != state.StatusReady {
		return
	}
	if m.awaitingID == "" {
		if m.snapshot.Stale {
			return
		}
	} else if !containsQuestion(m.snapshot.Questions, m.awaitingID) {
		return
	}
	m.awaitingNew = false
	m.awaitingID = ""
	if m.tracker != nil {
		m.tracker.Arm()
	}
}

func containsQuestion(questions []gateway.Question, id string) bool {
	for _, q := range questions {
		if string(q.ID) == id {
			return true
		}
	}
	return false
}

// rebuildFeed re-projects the snapshot, keeping the selection on the same
// question when it is still present.
func (m *Model) rebuildFeed() {
	var selectedID string
	if m.selected >= 0 && m.selected < len(m.items) {
		selectedID = m.items[m.selected].ID
	}

	highlighted := m.tracker != nil && m.tracker.Active()
	m.items = feed.Project(m.snapshot.Questions, feed.Options{Location: m.loc, Highlight: highlighted})

	m.selected = 0
	for i, it := range m.items {
		if it.ID == selectedID {
			m.selected = i
			break
		}
	}
	m.refreshFeedView()
}

func (m *Model) moveSelection(idx int) {
	if len(m.items) == 0 {
		m.selected = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.items) {
		idx = len(m.items) - 1
	}
	m.selected = idx
	m.refreshFeedView()
}

func (m *Model) resize() {
	contentWidth := m.width - 4
	if contentWidth < 10 {
		contentWidth = 10
	}
	m.input.SetWidth(contentWidth)
	m.help.Width = m.width

	feedHeight := m.height - 1 - inputBoxHeight - 1 - 1 - 2
	if feedHeight < 1 {
		feedHeight = 1
	}
	m.feedView.Width = contentWidth
	m.feedView.Height = feedHeight
	m.refreshFeedView()
}

// Messages

type signalSource int

const (
	signalCache signalSource = iota
	signalHealth
	signalHighlight
	signalMutation
)

type signalMsg signalSource

type snapshotMsg state.Snapshot

type createdMsg struct {
	question gateway.Question
	err      error
}

type toggledMsg struct {
	id  string
	err error
}

type copiedMsg struct {
	err error
}

// Commands

// listen waits for the next change signal of src.
func (m Model) listen(src signalSource) tea.Cmd {
	var ch <-chan struct{}
	switch src {
	case signalCache:
		if m.cache != nil {
			ch = m.cache.Changes()
		}
	case signalHealth:
		if m.monitor != nil {
			ch = m.monitor.Changes()
		}
	case signalHighlight:
		if m.tracker != nil {
			ch = m.tracker.Changes()
		}
	case signalMutation:
		if m.mutations != nil {
			ch = m.mutations.Changes()
		}
	}
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return signalMsg(src)
	}
}

func fetchCmd(ctx context.Context, cache *state.Cache) tea.Cmd {
	return func() tea.Msg {
		snap, _ := cache.Fetch(ctx)
		return snapshotMsg(snap)
	}
}

func createCmd(ctx context.Context, mutations *mutation.Coordinator, text string) tea.Cmd {
	return func() tea.Msg {
		q, err := mutations.Create(ctx, text)
		return createdMsg{question: q, err: err}
	}
}

func toggleCmd(ctx context.Context, mutations *mutation.Coordinator, id string, current bool) tea.Cmd {
	return func() tea.Msg {
		_, err := mutations.ToggleResolved(ctx, gateway.ID(id), current)
		return toggledMsg{id: id, err: err}
	}
}

func copyLinkCmd(link string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: joinlink.Copy(link)}
	}
}

// describeError turns a gateway or mutation error into a short sentence.
func describeError(err error) string {
	var validation *gateway.ValidationError
	switch {
	case errors.Is(err, mutation.ErrEmptyInput):
		return "the question is empty"
	case errors.Is(err, mutation.ErrPending):
		return "still waiting for the previous request"
	case errors.As(err, &validation):
		if validation.Message != "" {
			return "rejected by the server (" + validation.Message + ")"
		}
		return "rejected by the server"
	case errors.Is(err, gateway.ErrNotFound):
		return "the question no longer exists"
	case errors.Is(err, gateway.ErrNetwork):
		return "server unreachable"
	case errors.Is(err, gateway.ErrServer):
		var serverErr *gateway.ServerError
		if errors.As(err, &serverErr) && serverErr.Status > 0 {
			return fmt.Sprintf("server error (%d)", serverErr.Status)
		}
		return "server error"
	default:
		return err.Error()
	}
}

// Run starts the Bubble Tea program. The monitor and tracker timers are
// stopped and the cache closed when the program exits.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Monitor != nil {
		opts.Monitor.Start(ctx)
		defer opts.Monitor.Stop()
	}
	if opts.Highlight != nil {
		defer opts.Highlight.Stop()
	}
	if opts.Cache != nil {
		defer opts.Cache.Close()
	}

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
