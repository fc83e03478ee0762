package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ClientConfig is what the terminal composer needs to reach the proxy.
type ClientConfig struct {
	ProxyURL string
	Username string
	Password string
	// Theme is "dracula" (default) or "plain".
	Theme string
}

const (
	DefaultClientConfigPath = "~/.config/wp-composer/config.toml"
	DefaultProxyURL         = "http://localhost:3000"
	DefaultTheme            = "dracula"
)

// LoadClient parses the TOML client config. A missing file yields defaults.
func LoadClient(path string) (ClientConfig, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultClientConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{ProxyURL: DefaultProxyURL, Theme: DefaultTheme}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return ClientConfig{}, fmt.Errorf("read client config: %w", err)
	}

	var raw struct {
		ProxyURL string `toml:"proxy_url"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Theme    string `toml:"theme"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return ClientConfig{}, fmt.Errorf("parse client config: %w", err)
	}

	if v := strings.TrimSpace(raw.ProxyURL); v != "" {
		cfg.ProxyURL = strings.TrimRight(v, "/")
	}
	cfg.Username = strings.TrimSpace(raw.Username)
	cfg.Password = raw.Password
	if v := strings.ToLower(strings.TrimSpace(raw.Theme)); v != "" {
		cfg.Theme = v
	}
	return cfg, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
