package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultDraftTemplate is rendered when a session is opened with a draft built
// from a profile (e.g. `webchat new --greet`).
const DefaultDraftTemplate = `Hi, I'm chatting on behalf of {{{profile_name}}}.{{#profile_description}} Some context: {{{profile_description}}}.{{/profile_description}}`

// DefaultSessionName names new sessions when the user gives none. Triple
// braces keep mustache from HTML-escaping names.
const DefaultSessionName = `{{{profile_name}}} · {{date}}`

const (
	DefaultOwnerID           = "local"
	DefaultWriteTimeout      = 10 * time.Second
	DefaultReconcileInterval = 5 * time.Minute
)

type Config struct {
	OwnerID           string
	DefaultProfile    string
	WriteTimeout      time.Duration // Upper bound for one background transcript write
	ReconcileInterval time.Duration
	InboxDir          string // Directory watched for JSONL transcript imports
	DraftTemplate     string
	SessionName       string
}

type tomlConfig struct {
	OwnerID           string `toml:"owner_id"`
	DefaultProfile    string `toml:"default_profile"`
	WriteTimeout      string `toml:"write_timeout"`
	ReconcileInterval string `toml:"reconcile_interval"`
	InboxDir          string `toml:"inbox_dir"`
	DraftTemplate     string `toml:"draft_template"`
	NewSessionName    string `toml:"new_session_name"`
}

// Dir returns ~/.config/webchat
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "webchat")
	}
	return filepath.Join(home, ".config", "webchat")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OwnerID:           DefaultOwnerID,
		WriteTimeout:      DefaultWriteTimeout,
		ReconcileInterval: DefaultReconcileInterval,
		InboxDir:          filepath.Join(Dir(), "inbox"),
		DraftTemplate:     DefaultDraftTemplate,
		SessionName:       DefaultSessionName,
	}
}

// Load reads config from path, or ~/.config/webchat/config.toml when path is
// empty. A missing file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(Dir(), "config.toml")
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, nil // Use defaults
	}

	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if tc.OwnerID != "" {
		cfg.OwnerID = tc.OwnerID
	}
	cfg.DefaultProfile = tc.DefaultProfile
	if tc.InboxDir != "" {
		cfg.InboxDir = expandHome(tc.InboxDir)
	}
	if tc.DraftTemplate != "" {
		cfg.DraftTemplate = tc.DraftTemplate
	}
	if tc.NewSessionName != "" {
		cfg.SessionName = tc.NewSessionName
	}

	if tc.WriteTimeout != "" {
		d, err := time.ParseDuration(tc.WriteTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid write_timeout %q: %w", tc.WriteTimeout, err)
		}
		cfg.WriteTimeout = d
	}
	if tc.ReconcileInterval != "" {
		d, err := time.ParseDuration(tc.ReconcileInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid reconcile_interval %q: %w", tc.ReconcileInterval, err)
		}
		cfg.ReconcileInterval = d
	}

	return cfg, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
