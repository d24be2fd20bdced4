package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir    string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`

	// Scheduler tunables, in seconds.
	ModelIdleTimeoutSec int `json:"model_idle_timeout_sec" yaml:"model_idle_timeout_sec" toml:"model_idle_timeout_sec"`
	SweepIntervalSec    int `json:"sweep_interval_sec" yaml:"sweep_interval_sec" toml:"sweep_interval_sec"`
	VocabIdleTimeoutSec int `json:"vocab_idle_timeout_sec" yaml:"vocab_idle_timeout_sec" toml:"vocab_idle_timeout_sec"`

	// Native runtime tunables.
	ContextSize int `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int `json:"threads" yaml:"threads" toml:"threads"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
