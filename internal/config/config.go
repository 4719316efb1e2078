// Package config provides configuration for the lazyai orchestrator.
//
// Settings are resolved in three layers: built-in defaults, then an
// optional TOML file at ~/.lazyai/config.toml, then LAZYAI_* environment
// variables. Environment variables win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Repository is the target code host reference, either a clone URL
	// or an owner/name shorthand.
	Repository string `toml:"repository"`

	// BaseDir is the directory under which session workspaces live.
	BaseDir string `toml:"base_dir"`

	// AgentBin is the path to the external agent executable.
	AgentBin string `toml:"agent_bin"`

	// SetupCommand, if set, runs in the workspace once before the
	// implement stage (dependency install and similar).
	SetupCommand string `toml:"setup_command"`

	// ExtraTools are capability grants appended to the default set for
	// the implement and revise stages.
	ExtraTools []string `toml:"extra_tools"`

	// AgentTimeout bounds a single agent run (e.g. "30m"). Empty or
	// "0" disables the deadline.
	AgentTimeout string `toml:"agent_timeout"`

	// StatusAddr is the listen address for the diagnostics HTTP server.
	StatusAddr string `toml:"status_addr"`

	// LogFile receives orchestrator logs; empty logs to stderr.
	LogFile string `toml:"log_file"`
}

// Default returns a configuration with all defaults set.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		BaseDir:    filepath.Join(home, ".lazyai", "sessions"),
		AgentBin:   "claude",
		StatusAddr: "localhost:7434",
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lazyai", "config.toml"), nil
}

// Load resolves the configuration from defaults, the config file and
// the environment.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file path. A missing file is
// not an error; the file layer is simply skipped.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LAZYAI_REPOSITORY"); v != "" {
		cfg.Repository = v
	}
	if v := os.Getenv("LAZYAI_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("LAZYAI_AGENT_BIN"); v != "" {
		cfg.AgentBin = v
	}
	if v := os.Getenv("LAZYAI_SETUP_COMMAND"); v != "" {
		cfg.SetupCommand = v
	}
	if v := os.Getenv("LAZYAI_EXTRA_TOOLS"); v != "" {
		cfg.ExtraTools = splitList(v)
	}
	if v := os.Getenv("LAZYAI_AGENT_TIMEOUT"); v != "" {
		cfg.AgentTimeout = v
	}
	if v := os.Getenv("LAZYAI_STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}
	if v := os.Getenv("LAZYAI_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TimeoutDuration returns the parsed agent timeout, or zero when the
// deadline is disabled.
func (c Config) TimeoutDuration() time.Duration {
	if c.AgentTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.AgentTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate checks that settings required to dispatch commands are set.
func (c Config) Validate() error {
	if c.Repository == "" {
		return fmt.Errorf("repository is required (set LAZYAI_REPOSITORY or the repository key in the config file)")
	}
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if c.AgentBin == "" {
		return fmt.Errorf("agent_bin is required")
	}
	return nil
}
