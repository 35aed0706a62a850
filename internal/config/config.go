package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the board client settings.
type Config struct {
	APIURL          string
	SessionURL      string
	SessionName     string
	Health          string
	RefreshInterval time.Duration
	LogPath         string
}

// APIURLEnv overrides api_url from the config file.
const APIURLEnv = "QABOARD_API_URL"

const (
	defaultConfigPath  = "~/.config/qaboard/config.toml"
	defaultLogPath     = "~/.local/state/qaboard/qaboard.log"
	defaultSessionURL  = "http://localhost:5173"
	defaultSessionName = "Live Q&A"
	defaultHealth      = "simulated"
	fallbackAPIPort    = "8000"
)

// Load locates and parses the board config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		SessionURL      string `toml:"session_url"`
		SessionName     string `toml:"session_name"`
		Health          string `toml:"health"`
		RefreshInterval string `toml:"refresh_interval"`
		LogPath         string `toml:"log_path"`
	}

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		APIURL:      strings.TrimSpace(raw.APIURL),
		SessionURL:  strings.TrimSpace(raw.SessionURL),
		SessionName: strings.TrimSpace(raw.SessionName),
		Health:      strings.ToLower(strings.TrimSpace(raw.Health)),
		LogPath:     strings.TrimSpace(raw.LogPath),
	}
	if env := strings.TrimSpace(os.Getenv(APIURLEnv)); env != "" {
		cfg.APIURL = env
	}
	if cfg.SessionURL == "" {
		cfg.SessionURL = defaultSessionURL
	}
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
	if cfg.Health == "" {
		cfg.Health = defaultHealth
	}
	if cfg.APIURL == "" {
		cfg.APIURL = FallbackAPIURL(cfg.SessionURL)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = defaultLogPath
	}
	cfg.LogPath = mustExpand(cfg.LogPath)

	if interval := strings.TrimSpace(raw.RefreshInterval); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse refresh_interval: %w", err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("refresh_interval must not be negative")
		}
		cfg.RefreshInterval = d
	}

	return cfg, nil
}

// FallbackAPIURL serves the API from the session page's host on port 8000.
func FallbackAPIURL(sessionURL string) string {
	host := "localhost"
	scheme := "http"
	if u, err := url.Parse(strings.TrimSpace(sessionURL)); err == nil && u.Hostname() != "" {
		host = u.Hostname()
		if u.Scheme == "https" {
			scheme = "https"
		}
	}
	return scheme + "://" + net.JoinHostPort(host, fallbackAPIPort)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
