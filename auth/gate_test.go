package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) Now() time.Time { return f.t }

func newTestGate(t *testing.T, clock *fakeNow) *Gate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	g, err := NewGate(Options{
		Username:     "editor",
		PasswordHash: string(hash),
		Secret:       []byte("test-secret"),
		TTL:          time.Hour,
		LoginRate:    1,
		LoginBurst:   3,
		Now:          clock.Now,
	})
	require.NoError(t, err)
	return g
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("inside"))
	})
}

func jsonLogin(t *testing.T, g *Gate, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"username":"` + user + `","password":"` + pass + `"}`
	req := httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.HandleLogin(rec, req)
	return rec
}

func TestNewGate_Validation(t *testing.T) {
	_, err := NewGate(Options{Secret: []byte("x"), Password: "p"})
	assert.Error(t, err)

	_, err = NewGate(Options{Username: "u", Password: "p"})
	assert.Error(t, err)

	_, err = NewGate(Options{Username: "u", Secret: []byte("x")})
	assert.Error(t, err)

	_, err = NewGate(Options{Username: "u", Secret: []byte("x"), PasswordHash: "plain"})
	assert.Error(t, err)
}

func TestRequire_APIRequestWithoutSessionGets401JSON(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	rec := httptest.NewRecorder()
	g.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Authentication required","error_type":"unauthenticated","redirect":"/login"}`, rec.Body.String())
}

func TestRequire_PageNavigationRedirects(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	g.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestLogin_JSONIssuesCookieAcceptedByRequire(t *testing.T) {
	clock := &fakeNow{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGate(t, clock)

	rec := jsonLogin(t, g, "editor", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.AddCookie(cookies[0])
	inner := httptest.NewRecorder()
	g.Require(okHandler()).ServeHTTP(inner, req)
	assert.Equal(t, http.StatusOK, inner.Code)

	sess, err := g.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "editor", sess.Username)
	assert.NotEmpty(t, sess.ID)

	clock.t = clock.t.Add(2 * time.Hour)
	_, err = g.Authenticate(req)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}

func TestLogin_FormRedirects(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	form := url.Values{"username": {"editor"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	g.HandleLogin(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error=invalid", rec.Header().Get("Location"))

	form.Set("password", "secret")
	req = httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	g.HandleLogin(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestLogin_InvalidCredentialsJSON(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	rec := jsonLogin(t, g, "admin", "secret")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_RateLimited(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	for i := 0; i < 3; i++ {
		rec := jsonLogin(t, g, "editor", "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := jsonLogin(t, g, "editor", "secret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	g := newTestGate(t, &fakeNow{t: time.Now()})

	rec := httptest.NewRecorder()
	g.HandleLogout(rec, httptest.NewRequest(http.MethodGet, LogoutPath, nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestParseToken_RejectsForeignSecret(t *testing.T) {
	now := time.Now()
	token, _, err := issueToken([]byte("a"), "editor", now, time.Hour)
	require.NoError(t, err)

	_, err = parseToken([]byte("b"), token, now)
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	_, err = parseToken([]byte("a"), "", now)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}
