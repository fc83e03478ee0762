package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// staticHandler serves the front-end files; unknown /api paths get a JSON 404.
func (s *Server) staticHandler() http.Handler {
	files := http.FileServer(http.FS(s.staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeProxyError(w, &ProxyError{
				Message:    "Unknown API endpoint",
				HTTPStatus: http.StatusNotFound,
				ErrorType:  ErrorTypeNotFound,
			})
			return
		}
		files.ServeHTTP(w, r)
	})
}

// handleLoginPage serves login.html from the static dir when it has one,
// otherwise the built-in form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.gate.IsAuthenticated(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	page, err := fs.ReadFile(s.staticFS, "login.html")
	if errors.Is(err, fs.ErrNotExist) {
		page, err = fs.ReadFile(s.builtinFS, "login.html")
	}
	if err != nil {
		http.Error(w, "login page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
