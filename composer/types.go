package composer

import (
	"time"

	"auto_wordpress_article_publisher/apiclient"
	"auto_wordpress_article_publisher/countdown"
)

// Fallbacks used when the backend returns a blank title or category.
const (
	DefaultTitle    = "Blog Post"
	DefaultCategory = "General"
)

// Action names an operation that can be in flight.
type Action int

const (
	ActionGenerate Action = iota
	ActionRegenerateTitle
	ActionRegenerateCategory
	ActionPublish
)

func (a Action) String() string {
	switch a {
	case ActionGenerate:
		return "generate"
	case ActionRegenerateTitle:
		return "regenerate-title"
	case ActionRegenerateCategory:
		return "regenerate-category"
	case ActionPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// BannerKind selects how a banner is shown.
type BannerKind int

const (
	BannerNone BannerKind = iota
	BannerInfo
	BannerSuccess
	BannerError
)

// Banner is the single status line shown to the user.
type Banner struct {
	Kind BannerKind
	Text string
}

// Turn records one completed action, newest last.
type Turn struct {
	Action    Action
	Summary   string
	Err       error
	CreatedAt time.Time
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	// Version increases with every change notification.
	Version    uint64
	Result     *apiclient.GenerationResult
	Title      string
	Category   string
	LastPrompt string
	Busy       map[Action]bool
	Banner     Banner
	PostedURL  string
	Countdown  countdown.Status
	History    []Turn
}

// HasContent reports whether there is an article to act on.
func (s Snapshot) HasContent() bool {
	return s.Result != nil
}

// Working reports whether any action is in flight.
func (s Snapshot) Working() bool {
	for _, busy := range s.Busy {
		if busy {
			return true
		}
	}
	return false
}
