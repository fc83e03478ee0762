// Package composer holds the state of one editing session: the current
// article, the editable title and category, in-flight actions and the
// auto-publish countdown. Front-ends render Snapshots and call its methods.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"auto_wordpress_article_publisher/apiclient"
	"auto_wordpress_article_publisher/countdown"
)

var (
	// ErrBusy is returned when the same or a conflicting action is running.
	ErrBusy = errors.New("another action is in progress")
	// ErrNoContent is returned when there is nothing to act on yet.
	ErrNoContent = errors.New("no content generated yet")
	// ErrEmptyPrompt is returned for a blank prompt with no earlier one.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrEmptyContent is returned when generation succeeds without content.
	ErrEmptyContent = errors.New("backend returned no content")
	// ErrNoPostURL is returned when a publish succeeds without a post URL.
	ErrNoPostURL = errors.New("backend returned no post url")
)

var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// API is the subset of the proxy client the session needs.
type API interface {
	Generate(ctx context.Context, req apiclient.GenerateRequest) (apiclient.GenerationResult, error)
	RegenerateTitle(ctx context.Context, content string) (string, error)
	RegenerateCategory(ctx context.Context, content string) (string, error)
	ConfirmPost(ctx context.Context, req apiclient.PostRequest) (apiclient.PostResult, error)
}

// Options configure a Session.
type Options struct {
	API    API
	Logger *slog.Logger
	// Context bounds publishes started by the countdown.
	Context  context.Context
	Clock    countdown.Clock
	Duration time.Duration
	// HistoryLimit caps the recorded turns; zero keeps 50.
	HistoryLimit int
}

// Session is safe for concurrent use. Long calls run without the lock held.
type Session struct {
	mu  sync.Mutex
	api API
	log *slog.Logger
	ctx context.Context
	cd  *countdown.Countdown

	result       *apiclient.GenerationResult
	// gen changes whenever result is replaced or cleared.
	gen          uint64
	title        string
	category     string
	lastTitle    string
	lastCategory string
	lastPrompt   string
	busy         map[Action]bool
	banner       Banner
	postedURL    string
	history      []Turn
	historyLimit int
	version      uint64

	listeners []func(Snapshot)
}

// New builds an empty Session.
func New(opts Options) (*Session, error) {
	if opts.API == nil {
		return nil, errors.New("composer: api client required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	s := &Session{
		api:          opts.API,
		log:          logger,
		ctx:          ctx,
		busy:         make(map[Action]bool),
		historyLimit: limit,
	}
	s.cd = countdown.New(countdown.Options{
		Duration: opts.Duration,
		Clock:    opts.Clock,
		OnTick:   func(countdown.Status) { s.notify() },
		OnFire:   s.autoPublish,
	})
	return s, nil
}

// OnChange registers fn to receive a Snapshot after every state change.
// fn runs on the goroutine that caused the change and must not block.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops a running countdown.
func (s *Session) Close() {
	s.cd.Cancel()
}

// SetTitle replaces the editable title.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.notify()
}

// SetCategory replaces the editable category.
func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
	s.notify()
}

// Generate requests a new article. Input starting with http:// or https://
// is sent as a URL. A blank input reuses the last prompt.
func (s *Session) Generate(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)

	s.mu.Lock()
	if input == "" {
		input = s.lastPrompt
	}
	if input == "" {
		s.mu.Unlock()
		return ErrEmptyPrompt
	}
	if s.busy[ActionGenerate] || s.busy[ActionPublish] || s.cd.Status().State == countdown.Firing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy[ActionGenerate] = true
	s.lastPrompt = input
	s.banner = Banner{Kind: BannerInfo, Text: "Generating content..."}
	// the current article is about to be replaced
	s.cd.Cancel()
	s.mu.Unlock()
	s.notify()

	req := apiclient.GenerateRequest{Prompt: input}
	if urlPattern.MatchString(input) {
		req = apiclient.GenerateRequest{URL: input}
	}
	res, err := s.api.Generate(ctx, req)
	if err == nil && strings.TrimSpace(res.Content) == "" {
		err = ErrEmptyContent
	}

	s.mu.Lock()
	s.busy[ActionGenerate] = false
	if err != nil {
		s.failLocked(ActionGenerate, err)
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.result = &res
	s.gen++
	s.lastTitle = orDefault(res.Title, DefaultTitle)
	s.lastCategory = orDefault(res.Category, DefaultCategory)
	s.title = s.lastTitle
	s.category = s.lastCategory
	s.postedURL = ""
	s.banner = Banner{Kind: BannerInfo, Text: "Content generated successfully"}
	s.recordLocked(ActionGenerate, fmt.Sprintf("generated %q", s.lastTitle), nil)
	s.mu.Unlock()

	s.log.Info("content generated", "title", res.Title, "category", res.Category, "url_input", req.URL != "")
	if err := s.cd.Start(); err != nil {
		s.log.Warn("countdown not started", "error", err)
	}
	s.notify()
	return nil
}

// Regenerate repeats the last prompt.
func (s *Session) Regenerate(ctx context.Context) error {
	return s.Generate(ctx, "")
}

// RegenerateTitle asks for a new title and restarts the countdown.
func (s *Session) RegenerateTitle(ctx context.Context) error {
	return s.regenerate(ctx, ActionRegenerateTitle)
}

// RegenerateCategory asks for a new category and restarts the countdown.
func (s *Session) RegenerateCategory(ctx context.Context) error {
	return s.regenerate(ctx, ActionRegenerateCategory)
}

func (s *Session) regenerate(ctx context.Context, action Action) error {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return ErrNoContent
	}
	if s.busy[action] || s.busy[ActionPublish] || s.busy[ActionGenerate] {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy[action] = true
	content := s.result.Content
	gen := s.gen
	s.mu.Unlock()

	// the user is still editing: restart now and again on success
	s.cd.Reset()
	s.notify()

	var (
		value string
		err   error
	)
	if action == ActionRegenerateTitle {
		value, err = s.api.RegenerateTitle(ctx, content)
	} else {
		value, err = s.api.RegenerateCategory(ctx, content)
	}

	s.mu.Lock()
	s.busy[action] = false
	if gen != s.gen {
		// the article was replaced or published meanwhile
		s.mu.Unlock()
		s.log.Info("regeneration result dropped", "action", action.String())
		s.notify()
		return nil
	}
	if err != nil {
		s.failLocked(action, err)
		s.mu.Unlock()
		s.notify()
		return err
	}
	if action == ActionRegenerateTitle {
		s.lastTitle = orDefault(value, DefaultTitle)
		s.title = s.lastTitle
		s.recordLocked(action, fmt.Sprintf("title %q", s.lastTitle), nil)
	} else {
		s.lastCategory = orDefault(value, DefaultCategory)
		s.category = s.lastCategory
		s.recordLocked(action, fmt.Sprintf("category %q", s.lastCategory), nil)
	}
	s.mu.Unlock()

	s.cd.Reset()
	s.notify()
	return nil
}

// ConfirmPost publishes immediately, cancelling any countdown. It is
// allowed while the countdown runs and after a failed publish.
func (s *Session) ConfirmPost(ctx context.Context) error {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return ErrNoContent
	}
	if s.busy[ActionPublish] || s.busy[ActionGenerate] ||
		s.busy[ActionRegenerateTitle] || s.busy[ActionRegenerateCategory] {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.cd.Confirm(); err != nil {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy[ActionPublish] = true
	s.mu.Unlock()

	return s.publish(ctx, false)
}

// autoPublish runs when the countdown expires. A regeneration still in
// flight defers the publish by re-arming.
func (s *Session) autoPublish() {
	s.mu.Lock()
	switch {
	case s.busy[ActionRegenerateTitle] || s.busy[ActionRegenerateCategory]:
		s.mu.Unlock()
		s.log.Info("auto publish deferred: regeneration in flight")
		s.cd.Settle()
		if err := s.cd.Start(); err != nil {
			s.log.Warn("countdown not restarted", "error", err)
		}
		return
	case s.result == nil || s.busy[ActionPublish] || s.busy[ActionGenerate]:
		s.mu.Unlock()
		s.cd.Settle()
		return
	}
	s.busy[ActionPublish] = true
	s.mu.Unlock()

	if err := s.publish(s.ctx, true); err != nil {
		s.log.Warn("auto publish failed", "error", err)
	}
}

// publish sends the article. The caller has marked ActionPublish busy and
// moved the countdown to Firing.
func (s *Session) publish(ctx context.Context, auto bool) error {
	s.mu.Lock()
	req := apiclient.PostRequest{
		Content:      s.result.Content,
		MetaImageURL: s.result.MetaImageURL,
		Title:        orDefault(s.title, orDefault(s.lastTitle, DefaultTitle)),
		Category:     orDefault(s.category, orDefault(s.lastCategory, DefaultCategory)),
	}
	s.banner = Banner{Kind: BannerInfo, Text: "Posting to WordPress..."}
	s.mu.Unlock()
	s.notify()

	res, err := s.api.ConfirmPost(ctx, req)
	if err == nil && res.WordPressURL == "" {
		err = ErrNoPostURL
	}
	s.cd.Settle()

	s.mu.Lock()
	s.busy[ActionPublish] = false
	if err != nil {
		s.failLocked(ActionPublish, err)
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.postedURL = res.WordPressURL
	s.result = nil
	s.gen++
	s.banner = Banner{Kind: BannerSuccess, Text: "Published: " + res.WordPressURL}
	s.recordLocked(ActionPublish, res.WordPressURL, nil)
	s.mu.Unlock()

	s.log.Info("article published", "url", res.WordPressURL, "title", req.Title, "auto", auto)
	s.notify()
	return nil
}

func (s *Session) failLocked(action Action, err error) {
	s.banner = Banner{Kind: BannerError, Text: ErrorMessage(err)}
	s.recordLocked(action, "failed", err)
	s.log.Warn("action failed", "action", action.String(), "error", err)
}

func (s *Session) recordLocked(action Action, summary string, err error) {
	s.history = append(s.history, Turn{
		Action:    action,
		Summary:   summary,
		Err:       err,
		CreatedAt: time.Now(),
	})
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Title:      s.title,
		Category:   s.category,
		LastPrompt: s.lastPrompt,
		Busy:       make(map[Action]bool, len(s.busy)),
		Banner:     s.banner,
		PostedURL:  s.postedURL,
		Countdown:  s.cd.Status(),
		History:    append([]Turn(nil), s.history...),
		Version:    s.version,
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	for k, v := range s.busy {
		snap.Busy[k] = v
	}
	return snap
}

func (s *Session) notify() {
	s.mu.Lock()
	s.version++
	listeners := slices.Clone(s.listeners)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
