// Package ui is the terminal front-end for the composer: a prompt field,
// the generated article preview, editable title and category, and the
// auto-publish countdown.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"auto_wordpress_article_publisher/apiclient"
	"auto_wordpress_article_publisher/composer"
)

// DefaultHealthEvery is how often the backend status is refreshed.
const DefaultHealthEvery = 5 * time.Minute

// Composer is the session the UI drives.
type Composer interface {
	Snapshot() composer.Snapshot
	Generate(ctx context.Context, input string) error
	Regenerate(ctx context.Context) error
	RegenerateTitle(ctx context.Context) error
	RegenerateCategory(ctx context.Context) error
	ConfirmPost(ctx context.Context) error
	SetTitle(title string)
	SetCategory(category string)
}

// HealthChecker reports backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) (apiclient.Health, error)
}

// Options configure the UI.
type Options struct {
	Context     context.Context
	Session     Composer
	Health      HealthChecker
	HealthEvery time.Duration
	ProxyURL    string
	// Theme "plain" drops colors.
	Theme string
}

type field int

const (
	fieldPrompt field = iota
	fieldTitle
	fieldCategory
	fieldCount
)

// Model is the Bubble Tea model.
type Model struct {
	ctx         context.Context
	session     Composer
	health      HealthChecker
	healthEvery time.Duration
	proxyURL    string

	keys   keyMap
	help   help.Model
	styles styles

	prompt   textinput.Model
	title    textinput.Model
	category textinput.Model
	focus    field

	spinner  spinner.Model
	bar      progress.Model
	viewport viewport.Model

	snap    composer.Snapshot
	backend string
	notice  string
	width   int
	height  int
	ready   bool
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	every := opts.HealthEvery
	if every <= 0 {
		every = DefaultHealthEvery
	}

	prompt := textinput.New()
	prompt.Placeholder = "Prompt or article URL"
	prompt.Prompt = ""
	prompt.CharLimit = 2000
	prompt.Focus()

	title := textinput.New()
	title.Placeholder = composer.DefaultTitle
	title.Prompt = ""
	title.CharLimit = 300

	category := textinput.New()
	category.Placeholder = composer.DefaultCategory
	category.Prompt = ""
	category.CharLimit = 100

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	st := defaultStyles()
	if opts.Theme == "plain" {
		st = plainStyles()
		bar = progress.New(progress.WithSolidFill("7"), progress.WithoutPercentage())
	}

	m := Model{
		ctx:         ctx,
		session:     opts.Session,
		health:      opts.Health,
		healthEvery: every,
		proxyURL:    opts.ProxyURL,
		keys:        defaultKeyMap(),
		help:        help.New(),
		styles:      st,
		prompt:      prompt,
		title:       title,
		category:    category,
		spinner:     sp,
		bar:         bar,
		viewport:    viewport.New(80, 12),
		backend:     "unknown",
	}
	if opts.Session != nil {
		m.applySnapshot(opts.Session.Snapshot())
	}
	return m
}

type snapshotMsg composer.Snapshot

type healthMsg struct {
	health apiclient.Health
	err    error
}

type healthTickMsg time.Time

type actionDoneMsg struct {
	action composer.Action
	err    error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.checkHealthCmd(),
		healthTickCmd(m.healthEvery),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		// listeners run on several goroutines; drop anything older than shown
		if msg.Version >= m.snap.Version {
			m.applySnapshot(composer.Snapshot(msg))
		}
		return m, nil

	case actionDoneMsg:
		switch {
		case errors.Is(msg.err, composer.ErrBusy):
			m.notice = "Please wait: " + msg.action.String() + " is not possible right now."
		case errors.Is(msg.err, composer.ErrNoContent):
			m.notice = "Generate an article first."
		case errors.Is(msg.err, composer.ErrEmptyPrompt):
			m.notice = "Enter a prompt or URL."
		default:
			m.notice = ""
		}
		if m.session != nil {
			m.applySnapshot(m.session.Snapshot())
		}
		return m, nil

	case healthMsg:
		switch {
		case errors.Is(msg.err, apiclient.ErrUnauthenticated):
			m.backend = "signed out"
		case msg.err != nil:
			m.backend = "disconnected"
		default:
			m.backend = msg.health.Backend
		}
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(m.checkHealthCmd(), healthTickCmd(m.healthEvery))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if m.session == nil {
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Regenerate):
		return m, m.run(composer.ActionGenerate, m.session.Regenerate)
	case key.Matches(msg, m.keys.RegenerateTitle):
		return m, m.run(composer.ActionRegenerateTitle, m.session.RegenerateTitle)
	case key.Matches(msg, m.keys.RegenerateCategory):
		return m, m.run(composer.ActionRegenerateCategory, m.session.RegenerateCategory)
	case key.Matches(msg, m.keys.Publish):
		return m, m.run(composer.ActionPublish, m.session.ConfirmPost)
	case key.Matches(msg, m.keys.Submit):
		if m.focus == fieldPrompt {
			input := m.prompt.Value()
			return m, m.run(composer.ActionGenerate, func(ctx context.Context) error {
				return m.session.Generate(ctx, input)
			})
		}
		return m, m.setFocus(fieldPrompt)
	}
	return m.updateFocused(msg)
}

// updateFocused passes msg to the focused input and pushes title and
// category edits into the session. The session is updated from a command
// because its change listener sends back into the program.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case fieldTitle:
		before := m.title.Value()
		m.title, cmd = m.title.Update(msg)
		if v := m.title.Value(); v != before && m.session != nil {
			m.snap.Title = v
			session := m.session
			cmd = tea.Batch(cmd, func() tea.Msg { session.SetTitle(v); return nil })
		}
	case fieldCategory:
		before := m.category.Value()
		m.category, cmd = m.category.Update(msg)
		if v := m.category.Value(); v != before && m.session != nil {
			m.snap.Category = v
			session := m.session
			cmd = tea.Batch(cmd, func() tea.Msg { session.SetCategory(v); return nil })
		}
	}
	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	m.prompt.Blur()
	m.title.Blur()
	m.category.Blur()
	switch f {
	case fieldTitle:
		return m.title.Focus()
	case fieldCategory:
		return m.category.Focus()
	default:
		return m.prompt.Focus()
	}
}

// applySnapshot copies session state into the widgets. Inputs are only
// overwritten when the session changed the value, so typing is not lost.
func (m *Model) applySnapshot(s composer.Snapshot) {
	prev := m.snap
	m.snap = s
	if s.Title != prev.Title && s.Title != m.title.Value() {
		m.title.SetValue(s.Title)
	}
	if s.Category != prev.Category && s.Category != m.category.Value() {
		m.category.SetValue(s.Category)
	}
	if s.LastPrompt != prev.LastPrompt && m.prompt.Value() == "" {
		m.prompt.SetValue(s.LastPrompt)
	}
	m.refreshPreview(prev)
}

func (m *Model) refreshPreview(prev composer.Snapshot) {
	var content, before string
	if m.snap.Result != nil {
		content = m.snap.Result.Content
	}
	if prev.Result != nil {
		before = prev.Result.Content
	}
	m.viewport.SetContent(renderPreview(content, m.viewport.Width, m.styles))
	if content != before {
		m.viewport.GotoTop()
	}
}

func (m *Model) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.prompt.Width = w - 12
	m.title.Width = w - 12
	m.category.Width = w - 12
	m.bar.Width = w
	m.help.Width = m.width

	h := m.height - 14
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.refreshPreview(m.snap)
}

func (m Model) run(action composer.Action, fn func(context.Context) error) tea.Cmd {
	if m.session == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) checkHealthCmd() tea.Cmd {
	if m.health == nil {
		return nil
	}
	checker, ctx := m.health, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		h, err := checker.Health(ctx)
		return healthMsg{health: h, err: err}
	}
}

func healthTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return healthTickMsg(t)
	})
}

// Run starts the program and feeds it session changes until it exits.
func Run(opts Options, subscribe func(func(composer.Snapshot))) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if subscribe != nil {
		subscribe(func(s composer.Snapshot) { p.Send(snapshotMsg(s)) })
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
