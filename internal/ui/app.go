package ui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/prefs"
	"github.com/five82/postboard/internal/state"
)

// View represents the current screen.
type View int

const (
	ViewList View = iota
	ViewDetail
	ViewForm
	ViewLogs
)

// Actions is the intent surface the UI drives. *effects.Orchestrator
// satisfies it.
type Actions interface {
	Fetch()
	SubmitAdd(post.Draft) error
	SubmitEdit(post.Edit) error
	Delete(id string)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Actions   Actions
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	store     *state.Store
	actions   Actions
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	feed      *feed
	keys      keyMap

	theme    Theme
	view     View
	prevView View
	width    int
	height   int
	ready    bool

	state          state.State
	selected       int
	errorDismissed bool

	spinner spinner.Model
	detail  viewport.Model
	form    form
	logs    viewport.Model
	status  string
}

// New creates the root model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := opts.Store
	if store == nil {
		store = state.New()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		store:     store,
		actions:   opts.Actions,
		logger:    logger,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		keys:      defaultKeyMap(),
		theme:     ThemeFor(opts.Prefs),
		view:      ViewList,
		state:     store.Snapshot(),
		spinner:   sp,
		detail:    viewport.New(0, 0),
		logs:      viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.feed != nil {
		cmds = append(cmds, waitForChanges(m.feed))
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

	case changesMsg:
		m.applyChanges(msg)
		if m.feed == nil {
			return m, nil
		}
		return m, waitForChanges(m.feed)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logLinesMsg:
		m.setLogLines(msg)
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.logger.Error("save preferences failed", "error", msg.err)
			m.status = "Could not save theme"
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) applyChanges(changes changesMsg) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		if c.Transition == state.TransitionSetCollectionError {
			m.errorDismissed = false
		}
	}
	m.state = changes[len(changes)-1].State
	if m.selected >= len(m.state.Posts) {
		m.selected = max(len(m.state.Posts)-1, 0)
	}

	if m.view == ViewForm && m.form.shouldClose(m.state.Posts) {
		m.view = ViewList
	}
	m.refreshDetail()
}

func (m *Model) resize() {
	bodyHeight := max(m.height-2, 1)
	m.detail.Width = max(m.width-4, 1)
	m.detail.Height = max(bodyHeight-6, 1)
	m.logs.Width = max(m.width, 1)
	m.logs.Height = bodyHeight
	if m.view == ViewForm {
		m.form.resize(m.width, bodyHeight)
	}
	m.refreshDetail()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.view == ViewForm {
		return m.handleFormKey(msg)
	}
	if m.view == ViewList && m.errorShown() {
		return m.handleErrorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.ToggleTheme):
		m.prefs = m.prefs.Toggled()
		m.theme = ThemeFor(m.prefs)
		return m, savePrefsCmd(m.prefsPath, m.prefs)
	case key.Matches(msg, m.keys.Logs) && m.view != ViewLogs:
		m.prevView = m.view
		m.view = ViewLogs
		return m, readLogsCmd(m.logPath)
	}

	switch m.view {
	case ViewList:
		return m.handleListKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) errorShown() bool {
	return m.state.Collection.IsError && !m.errorDismissed
}

// handleErrorKey serves the collection error panel. Going home dismisses
// the panel and fetches again.
func (m Model) handleErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.GoHome):
		m.errorDismissed = true
		m.view = ViewList
		m.selected = 0
		m.fetch()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.state.Posts)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.fetch()
	case key.Matches(msg, m.keys.Add):
		m.openAddForm()
		cmd := m.form.focusCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		if p, ok := m.selectedPost(); ok {
			m.openDetail(p)
		}
	}
	return m, nil
}

func (m *Model) fetch() {
	if m.actions != nil {
		m.actions.Fetch()
	}
}

func (m Model) selectedPost() (post.Post, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Posts) {
		return post.Post{}, false
	}
	return m.state.Posts[m.selected], true
}

// Messages and commands

type prefsSavedMsg struct{ err error }

func savePrefsCmd(path string, p prefs.Prefs) tea.Cmd {
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	m.feed = newFeed()
	unsubscribe := m.store.Subscribe(m.feed.push)
	defer unsubscribe()
	defer m.feed.close()

	// Pick up transitions applied before the subscription.
	m.state = m.store.Snapshot()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	return err
}
