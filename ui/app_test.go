package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_wordpress_article_publisher/apiclient"
	"auto_wordpress_article_publisher/composer"
	"auto_wordpress_article_publisher/countdown"
)

type fakeComposer struct {
	mu     sync.Mutex
	snap   composer.Snapshot
	calls  []string
	inputs []string
	titles []string
}

func (f *fakeComposer) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeComposer) Snapshot() composer.Snapshot { return f.snap }

func (f *fakeComposer) Generate(_ context.Context, input string) error {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	return f.record("generate")
}

func (f *fakeComposer) Regenerate(context.Context) error { return f.record("regenerate") }

func (f *fakeComposer) RegenerateTitle(context.Context) error { return f.record("regenerate-title") }

func (f *fakeComposer) RegenerateCategory(context.Context) error {
	return f.record("regenerate-category")
}

func (f *fakeComposer) ConfirmPost(context.Context) error { return f.record("confirm-post") }

func (f *fakeComposer) SetTitle(title string) {
	f.mu.Lock()
	f.titles = append(f.titles, title)
	f.mu.Unlock()
}

func (f *fakeComposer) SetCategory(string) {}

type fakeHealth struct {
	health apiclient.Health
	err    error
}

func (f fakeHealth) Health(context.Context) (apiclient.Health, error) { return f.health, f.err }

func catsSnapshot(version uint64, remaining int) composer.Snapshot {
	return composer.Snapshot{
		Version:    version,
		Result:     &apiclient.GenerationResult{Content: "Cats are great.", Title: "Cats", Category: "Pets"},
		Title:      "Cats",
		Category:   "Pets",
		LastPrompt: "Write about cats",
		Busy:       map[composer.Action]bool{},
		Countdown: countdown.Status{
			State:     countdown.Armed,
			Remaining: remaining,
			Total:     30,
			Progress:  float64(remaining) / 30,
		},
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestView_ShowsGeneratedArticle(t *testing.T) {
	m := sized(t, New(Options{Session: &fakeComposer{}}))
	m, _ = update(t, m, snapshotMsg(catsSnapshot(1, 30)))

	assert.Equal(t, "Cats", m.title.Value())
	assert.Equal(t, "Pets", m.category.Value())
	assert.Equal(t, "Write about cats", m.prompt.Value())

	view := m.View()
	assert.Contains(t, view, "Cats are great.")
	assert.Contains(t, view, "Post to WordPress (30s)")

	m, _ = update(t, m, snapshotMsg(catsSnapshot(2, 12)))
	assert.Contains(t, m.View(), "Post to WordPress (12s)")
}

func TestView_DropsStaleSnapshots(t *testing.T) {
	m := sized(t, New(Options{Session: &fakeComposer{}}))
	m, _ = update(t, m, snapshotMsg(catsSnapshot(5, 30)))
	m, _ = update(t, m, snapshotMsg(catsSnapshot(4, 17)))

	assert.Equal(t, 30, m.snap.Countdown.Remaining)
}

func TestView_ErrorBanner(t *testing.T) {
	m := sized(t, New(Options{Session: &fakeComposer{}}))
	snap := composer.Snapshot{
		Version:    1,
		LastPrompt: "https://evil.com/post",
		Banner: composer.Banner{
			Kind: composer.BannerError,
			Text: `Domain "evil.com" is blacklisted due to previous errors. Try a different URL.`,
		},
	}
	m, _ = update(t, m, snapshotMsg(snap))

	view := m.View()
	assert.Contains(t, view, "evil.com")
	assert.NotContains(t, view, "Post to WordPress")
}

func TestView_PublishingState(t *testing.T) {
	m := sized(t, New(Options{Session: &fakeComposer{}}))
	snap := catsSnapshot(1, 0)
	snap.Countdown = countdown.Status{State: countdown.Firing, Total: 30}
	snap.Busy[composer.ActionPublish] = true
	m, _ = update(t, m, snapshotMsg(snap))

	view := m.View()
	assert.Contains(t, view, "Posting to WordPress...")
	assert.NotContains(t, view, "(0s)")
}

func TestKeys_TriggerSessionActions(t *testing.T) {
	fc := &fakeComposer{snap: catsSnapshot(1, 30)}
	m := sized(t, New(Options{Session: fc}))

	cases := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyCtrlP, "confirm-post"},
		{tea.KeyCtrlT, "regenerate-title"},
		{tea.KeyCtrlO, "regenerate-category"},
		{tea.KeyCtrlR, "regenerate"},
	}
	for _, tc := range cases {
		_, cmd := update(t, m, tea.KeyMsg{Type: tc.key})
		require.NotNil(t, cmd, tc.want)
		msg := cmd()
		done, ok := msg.(actionDoneMsg)
		require.True(t, ok)
		assert.NoError(t, done.err)
	}
	assert.Equal(t, []string{"confirm-post", "regenerate-title", "regenerate-category", "regenerate"}, fc.calls)
}

func TestKeys_EnterGeneratesFromPrompt(t *testing.T) {
	fc := &fakeComposer{}
	m := sized(t, New(Options{Session: fc}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Write about cats")})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"Write about cats"}, fc.inputs)
}

func TestActionDone_BusyNotice(t *testing.T) {
	fc := &fakeComposer{}
	m := sized(t, New(Options{Session: fc}))
	m, _ = update(t, m, actionDoneMsg{action: composer.ActionPublish, err: composer.ErrBusy})
	assert.Contains(t, m.View(), "publish is not possible right now")

	m, _ = update(t, m, actionDoneMsg{action: composer.ActionGenerate})
	assert.Empty(t, m.notice)
}

func TestTitleEditsReachSession(t *testing.T) {
	fc := &fakeComposer{snap: catsSnapshot(1, 30)}
	m := sized(t, New(Options{Session: fc}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldTitle, m.focus)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})
	assert.Equal(t, "Cats!", m.title.Value())
	assert.Equal(t, "Cats!", m.snap.Title)
	assert.NotNil(t, cmd)

	// a later tick with the session's own title must not undo the edit
	snap := catsSnapshot(2, 29)
	snap.Title = "Cats!"
	m, _ = update(t, m, snapshotMsg(snap))
	assert.Equal(t, "Cats!", m.title.Value())
}

func TestHealthStatus(t *testing.T) {
	m := sized(t, New(Options{Session: &fakeComposer{}}))
	assert.Contains(t, m.View(), "backend: unknown")

	m, _ = update(t, m, healthMsg{health: apiclient.Health{Status: "ok", Backend: "connected"}})
	assert.Contains(t, m.View(), "backend: connected")

	m, _ = update(t, m, healthMsg{err: errors.New("refused")})
	assert.Contains(t, m.View(), "backend: disconnected")

	m, _ = update(t, m, healthMsg{err: &apiclient.APIError{Status: 401}})
	assert.Contains(t, m.View(), "backend: signed out")
}

func TestCheckHealthCmd(t *testing.T) {
	m := New(Options{Health: fakeHealth{health: apiclient.Health{Status: "ok", Backend: "unknown"}}})
	cmd := m.checkHealthCmd()
	require.NotNil(t, cmd)
	msg, ok := cmd().(healthMsg)
	require.True(t, ok)
	assert.Equal(t, "unknown", msg.health.Backend)

	assert.Nil(t, New(Options{}).checkHealthCmd())
}
