package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"auto_wordpress_article_publisher/logging"
)

const (
	CookieName = "wp_session"
	LoginPath  = "/login"
	LogoutPath = "/logout"
)

// Options configure a Gate.
type Options struct {
	Username string
	// PasswordHash is a bcrypt hash; when empty Password is hashed at startup.
	PasswordHash string
	Password     string
	Secret       []byte
	TTL          time.Duration
	LoginRate    float64
	LoginBurst   int
	SecureCookie bool
	Logger       *slog.Logger
	Now          func() time.Time
}

// Gate verifies sessions and handles login/logout.
type Gate struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	secure       bool
	limiter      *loginLimiter
	logger       *slog.Logger
	now          func() time.Time
}

// NewGate validates opts and prepares the credential hash.
func NewGate(opts Options) (*Gate, error) {
	if opts.Username == "" {
		return nil, errors.New("auth username required")
	}
	if len(opts.Secret) == 0 {
		return nil, errors.New("session secret required")
	}

	hash := []byte(opts.PasswordHash)
	if len(hash) == 0 {
		if opts.Password == "" {
			return nil, errors.New("auth password or password hash required")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginRate := opts.LoginRate
	if loginRate <= 0 {
		loginRate = 0.2
	}
	burst := opts.LoginBurst
	if burst <= 0 {
		burst = 5
	}

	return &Gate{
		username:     opts.Username,
		passwordHash: hash,
		secret:       opts.Secret,
		ttl:          ttl,
		secure:       opts.SecureCookie,
		limiter:      newLoginLimiter(rate.Limit(loginRate), burst, now),
		logger:       logger,
		now:          now,
	}, nil
}

// Authenticate returns the session carried by r or an error wrapping
// ErrUnauthenticated.
func (g *Gate) Authenticate(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	return parseToken(g.secret, cookie.Value, g.now())
}

// Require wraps next so only authenticated requests reach it. API calls get
// a 401 JSON body; page navigation is redirected to the login page.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := g.Authenticate(r); err != nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":      "Authentication required",
					"error_type": "unauthenticated",
					"redirect":   LoginPath,
				})
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAuthenticated reports whether r carries a valid session.
func (g *Gate) IsAuthenticated(r *http.Request) bool {
	_, err := g.Authenticate(r)
	return err == nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin checks credentials from a form or JSON body and sets the
// session cookie.
func (g *Gate) HandleLogin(w http.ResponseWriter, r *http.Request) {
	wantsJSON := isJSONRequest(r)
	log := logging.FromContext(r.Context(), g.logger)

	if !g.limiter.allow(clientIP(r)) {
		log.Warn("login throttled", "ip", clientIP(r))
		w.Header().Set("Retry-After", strconv.Itoa(g.limiter.retryAfterSeconds()))
		if wantsJSON {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":      "Too many login attempts, try again later",
				"error_type": "rate_limited",
			})
			return
		}
		http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
		return
	}

	var req loginRequest
	if wantsJSON {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":      "Invalid login payload",
				"error_type": "invalid_request",
			})
			return
		}
	} else {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}

	if err := g.checkCredentials(req.Username, req.Password); err != nil {
		log.Warn("login rejected", "username", req.Username)
		if wantsJSON {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":      "Invalid username or password",
				"error_type": "invalid_credentials",
			})
			return
		}
		http.Redirect(w, r, LoginPath+"?error=invalid", http.StatusFound)
		return
	}

	token, expires, err := issueToken(g.secret, g.username, g.now(), g.ttl)
	if err != nil {
		log.Error("issue session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create session"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	log.Info("login accepted", "username", g.username)

	if wantsJSON {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout clears the session cookie.
func (g *Gate) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (g *Gate) checkCredentials(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	// always run bcrypt so timing does not reveal the username
	passErr := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
