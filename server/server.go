// Package server exposes the browser-facing /api routes and forwards each
// call to the content backend, translating every failure into one JSON
// error shape.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"

	"auto_wordpress_article_publisher/backend"
)

//go:embed web/*.html
var embeddedStatic embed.FS

// Backend is the forwarding side of the proxy.
type Backend interface {
	Do(ctx context.Context, op backend.Operation, body []byte) (*backend.Response, error)
	Probe(ctx context.Context) error
	Operations() backend.Operations
}

// Gate is the session gate in front of every route.
type Gate interface {
	Require(next http.Handler) http.Handler
	IsAuthenticated(r *http.Request) bool
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleLogout(w http.ResponseWriter, r *http.Request)
}

// Options configure a Server.
type Options struct {
	Backend   Backend
	Gate      Gate
	Logger    *slog.Logger
	StaticDir string
	// ProbeRate is the chance that /api/health actually calls the backend.
	ProbeRate float64
	// Rand returns values in [0,1); defaults to math/rand/v2.
	Rand func() float64
}

type Server struct {
	backend   Backend
	gate      Gate
	logger    *slog.Logger
	staticFS  fs.FS
	builtinFS fs.FS
	probeRate float64
	rand      func() float64
}

// New validates opts and builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("backend required")
	}
	if opts.Gate == nil {
		return nil, errors.New("session gate required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.Float64
	}

	builtin, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}
	static := builtin
	if opts.StaticDir != "" {
		static = os.DirFS(opts.StaticDir)
	}

	return &Server{
		backend:   opts.Backend,
		gate:      opts.Gate,
		logger:    logger,
		staticFS:  static,
		builtinFS: builtin,
		probeRate: opts.ProbeRate,
		rand:      rnd,
	}, nil
}

// Routes returns the complete handler tree.
func (s *Server) Routes() http.Handler {
	ops := s.backend.Operations()
	mux := http.NewServeMux()

	api := func(pattern string, h http.Handler) {
		mux.Handle(pattern, s.gate.Require(h))
	}
	api("POST /api/generate", s.forward(ops.Generate, true))
	api("POST /api/regenerate-title", s.forward(ops.RegenerateTitle, true))
	api("POST /api/regenerate-category", s.forward(ops.RegenerateCategory, true))
	api("POST /api/confirm-post", s.forward(ops.ConfirmPost, true))
	api("GET /api/health", http.HandlerFunc(s.handleHealth))
	api("GET /api/debug", s.forward(ops.Debug, false))

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.gate.HandleLogin)
	mux.HandleFunc("GET /logout", s.gate.HandleLogout)
	mux.Handle("/", s.gate.Require(s.staticHandler()))

	return requestID(accessLog(s.logger, recoverer(s.logger, mux)))
}
