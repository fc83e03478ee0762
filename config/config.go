// Package config loads settings for the proxy server (JSON file plus
// environment) and for the terminal client (TOML).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"auto_wordpress_article_publisher/logging"
)

// Config holds the proxy server settings.
type Config struct {
	ServerAddr      string         `json:"server_addr,omitempty"`
	RemoteServerURL string         `json:"remote_server_url,omitempty"`
	StaticDir       string         `json:"static_dir,omitempty"`
	HealthProbeRate *float64       `json:"health_probe_rate,omitempty"`
	Timeouts        Timeouts       `json:"timeouts"`
	Auth            AuthConfig     `json:"auth"`
	Log             logging.Config `json:"log"`
}

// Timeouts are the per-operation budgets for calls to the backend.
type Timeouts struct {
	Generate    Duration `json:"generate,omitempty"`
	ConfirmPost Duration `json:"confirm_post,omitempty"`
	Regenerate  Duration `json:"regenerate,omitempty"`
	Health      Duration `json:"health,omitempty"`
	Debug       Duration `json:"debug,omitempty"`
}

// AuthConfig configures the session gate.
type AuthConfig struct {
	Username      string   `json:"username,omitempty"`
	Password      string   `json:"password,omitempty"`
	PasswordHash  string   `json:"password_hash,omitempty"` // bcrypt; wins over password
	SessionSecret string   `json:"session_secret,omitempty"`
	SessionTTL    Duration `json:"session_ttl,omitempty"`
	// LoginRate is the sustained login attempts per second allowed per client IP.
	LoginRate  float64 `json:"login_rate,omitempty"`
	LoginBurst int     `json:"login_burst,omitempty"`
}

const (
	DefaultServerAddr      = ":3000"
	DefaultRemoteServerURL = "http://localhost:8000"
	DefaultHealthProbeRate = 0.1
	DefaultUsername        = "admin"
	DefaultPassword        = "admin"
	DefaultSessionSecret   = "change-this-session-secret"
)

// Defaults returns a config with every field populated.
func Defaults() Config {
	rate := DefaultHealthProbeRate
	return Config{
		ServerAddr:      DefaultServerAddr,
		RemoteServerURL: DefaultRemoteServerURL,
		HealthProbeRate: &rate,
		Timeouts: Timeouts{
			Generate:    Duration(180 * time.Second),
			ConfirmPost: Duration(180 * time.Second),
			Regenerate:  Duration(30 * time.Second),
			Health:      Duration(2 * time.Second),
			Debug:       Duration(10 * time.Second),
		},
		Auth: AuthConfig{
			Username:      DefaultUsername,
			Password:      DefaultPassword,
			SessionSecret: DefaultSessionSecret,
			SessionTTL:    Duration(24 * time.Hour),
			LoginRate:     0.2,
			LoginBurst:    5,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads the JSON config at path (a missing file is not an error),
// loads .env if present, and applies environment overrides.
func Load(path string) (Config, error) {
	// .env is optional; plain environment variables work without it.
	_ = godotenv.Load()

	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	fillZero(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := getEnv("REMOTE_SERVER_URL"); v != "" {
		cfg.RemoteServerURL = v
	}
	if v := getEnv("PORT"); v != "" {
		cfg.ServerAddr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := getEnv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := getEnv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := getEnv("AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := getEnv("AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := getEnv("AUTH_PASSWORD_HASH"); v != "" {
		cfg.Auth.PasswordHash = v
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getEnv("HEALTH_PROBE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HealthProbeRate = &f
		}
	}
}

// fillZero restores defaults for fields a partial JSON file left empty.
func fillZero(cfg *Config) {
	def := Defaults()
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = def.ServerAddr
	}
	if cfg.RemoteServerURL == "" {
		cfg.RemoteServerURL = def.RemoteServerURL
	}
	if cfg.HealthProbeRate == nil {
		cfg.HealthProbeRate = def.HealthProbeRate
	}
	t := &cfg.Timeouts
	if t.Generate == 0 {
		t.Generate = def.Timeouts.Generate
	}
	if t.ConfirmPost == 0 {
		t.ConfirmPost = def.Timeouts.ConfirmPost
	}
	if t.Regenerate == 0 {
		t.Regenerate = def.Timeouts.Regenerate
	}
	if t.Health == 0 {
		t.Health = def.Timeouts.Health
	}
	if t.Debug == 0 {
		t.Debug = def.Timeouts.Debug
	}
	a := &cfg.Auth
	if a.Username == "" {
		a.Username = def.Auth.Username
	}
	if a.Password == "" && a.PasswordHash == "" {
		a.Password = def.Auth.Password
	}
	if a.SessionSecret == "" {
		a.SessionSecret = def.Auth.SessionSecret
	}
	if a.SessionTTL == 0 {
		a.SessionTTL = def.Auth.SessionTTL
	}
	if a.LoginRate == 0 {
		a.LoginRate = def.Auth.LoginRate
	}
	if a.LoginBurst == 0 {
		a.LoginBurst = def.Auth.LoginBurst
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Log.Output
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.RemoteServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote_server_url %q is not an absolute URL", c.RemoteServerURL)
	}
	if c.ServerAddr == "" {
		return errors.New("server_addr is required")
	}
	budgets := map[string]Duration{
		"generate":     c.Timeouts.Generate,
		"confirm_post": c.Timeouts.ConfirmPost,
		"regenerate":   c.Timeouts.Regenerate,
		"health":       c.Timeouts.Health,
		"debug":        c.Timeouts.Debug,
	}
	for name, d := range budgets {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be positive", name)
		}
	}
	if c.HealthProbeRate != nil && (*c.HealthProbeRate < 0 || *c.HealthProbeRate > 1) {
		return fmt.Errorf("health_probe_rate must be within [0,1], got %v", *c.HealthProbeRate)
	}
	if c.Auth.Username == "" {
		return errors.New("auth.username is required")
	}
	if c.Auth.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	return nil
}

// ProbeRate returns the configured health probe probability.
func (c Config) ProbeRate() float64 {
	if c.HealthProbeRate == nil {
		return DefaultHealthProbeRate
	}
	return *c.HealthProbeRate
}

// UsesDefaultCredentials reports whether the gate still accepts admin/admin.
func (c Config) UsesDefaultCredentials() bool {
	return c.Auth.PasswordHash == "" && c.Auth.Username == DefaultUsername && c.Auth.Password == DefaultPassword
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Duration is a time.Duration that reads "30s" style strings from JSON.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}
