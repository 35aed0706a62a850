package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/five82/qaboard/internal/config"
)

// Config controls the reference server.
type Config struct {
	Addr         string `yaml:"addr"`
	DBPath       string `yaml:"db_path"`
	ResetOnStart bool   `yaml:"reset_on_start"`
	Timezone     string `yaml:"timezone"`
	ArchiveDir   string `yaml:"archive_dir"`
}

// DefaultConfig mirrors a server started without a config file.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8000",
		DBPath:       "~/.local/share/qaboard/questions.db",
		ResetOnStart: true,
		Timezone:     "Asia/Seoul",
	}
}

// LoadConfig reads a YAML config. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read server config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse server config: %w", err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	def := DefaultConfig()
	c.Addr = strings.TrimSpace(c.Addr)
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	c.DBPath = strings.TrimSpace(c.DBPath)
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	expanded, err := config.ExpandPath(c.DBPath)
	if err != nil {
		return fmt.Errorf("db_path: %w", err)
	}
	c.DBPath = expanded

	if dir := strings.TrimSpace(c.ArchiveDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("archive_dir: %w", err)
		}
		c.ArchiveDir = expanded
	}

	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone whose midnight bounds a day's questions.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
