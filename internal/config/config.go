package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"llmchat/internal"
	"llmchat/internal/logger"
)

type WeatherConfig struct {
	GeocodingURL string `toml:"geocoding_url" yaml:"geocoding_url"`
	ForecastURL  string `toml:"forecast_url" yaml:"forecast_url"`
}

// SearchConfig points the search_web tool at a Google Custom Search engine.
// The key and engine ID are read from the named environment variables.
type SearchConfig struct {
	URL         string `toml:"url" yaml:"url"`
	APIKeyEnv   string `toml:"api_key_env" yaml:"api_key_env"`
	EngineIDEnv string `toml:"engine_id_env" yaml:"engine_id_env"`
}

type Config struct {
	Provider   string `toml:"provider" yaml:"provider"`
	BaseURL    string `toml:"base_url" yaml:"base_url"`
	Model      string `toml:"model" yaml:"model"`
	APIKeyEnv  string `toml:"api_key_env" yaml:"api_key_env"`
	ToolChoice string `toml:"tool_choice" yaml:"tool_choice"`

	MaxRounds          int `toml:"max_rounds" yaml:"max_rounds"`
	RequestTimeoutSecs int `toml:"request_timeout_secs" yaml:"request_timeout_secs"`
	ToolTimeoutSecs    int `toml:"tool_timeout_secs" yaml:"tool_timeout_secs"`

	Tools               []string `toml:"tools" yaml:"tools"`
	ToolErrorsAsResults bool     `toml:"tool_errors_as_results" yaml:"tool_errors_as_results"`
	HistoryWarn         int      `toml:"history_warn" yaml:"history_warn"`

	LogDir        string `toml:"log_dir" yaml:"log_dir"`
	TranscriptDir string `toml:"transcript_dir" yaml:"transcript_dir"`
	Debug         bool   `toml:"debug" yaml:"debug"`
	ShowToolCalls bool   `toml:"show_tool_calls" yaml:"show_tool_calls"`

	Weather WeatherConfig `toml:"weather" yaml:"weather"`
	Search  SearchConfig  `toml:"search" yaml:"search"`
}

// Provider is a preset for an OpenAI-compatible chat completions endpoint.
type Provider struct {
	BaseURL      string
	DefaultModel string
	KeyEnv       string
}

var Providers = map[string]Provider{
	"openai": {
		BaseURL:      "https://api.openai.com/v1/chat/completions",
		DefaultModel: "gpt-4o-mini",
		KeyEnv:       "OPENAI_API_KEY",
	},
	"gemini": {
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
		DefaultModel: "gemini-2.0-flash",
		KeyEnv:       "GOOGLE_LLM_API_KEY",
	},
}

var validToolChoices = []string{"auto", "none", "required"}

// DefaultConfig returns the built-in settings. Failed tool calls are reported
// to the model by default so an interactive conversation stays sendable.
func DefaultConfig() *Config {
	return &Config{
		Provider:            "openai",
		ToolChoice:          "auto",
		MaxRounds:           8,
		RequestTimeoutSecs:  120,
		ToolTimeoutSecs:     30,
		Tools:               []string{"get_weather"},
		ToolErrorsAsResults: true,
		LogDir:              "./data/logs",
		ShowToolCalls:       true,
		Search: SearchConfig{
			APIKeyEnv:   "GOOGLE_API_KEY",
			EngineIDEnv: "GOOGLE_SEARCH_ENGINE_ID",
		},
	}
}

// ApplyProviderDefaults fills the endpoint and model from the provider preset
// when they are not set explicitly.
func (c *Config) ApplyProviderDefaults() {
	preset, ok := Providers[strings.ToLower(c.Provider)]
	if !ok {
		return
	}
	if c.BaseURL == "" {
		c.BaseURL = preset.BaseURL
	}
	if c.Model == "" {
		c.Model = preset.DefaultModel
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSecs) * time.Second
}

// ValidateConfig checks if all required configuration fields are properly set
func ValidateConfig(cfg *Config) error {
	var missingFields []string
	var problems []string

	if cfg.BaseURL == "" {
		missingFields = append(missingFields, "base_url")
	}
	if cfg.Model == "" {
		missingFields = append(missingFields, "model")
	}

	if cfg.Provider != "" {
		if _, ok := Providers[strings.ToLower(cfg.Provider)]; !ok {
			problems = append(problems, fmt.Sprintf("unknown provider %q", cfg.Provider))
		}
	}
	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		problems = append(problems, "base_url must start with http:// or https://")
	}
	if cfg.ToolChoice != "" && !slices.Contains(validToolChoices, cfg.ToolChoice) {
		problems = append(problems, fmt.Sprintf("tool_choice must be one of %s", strings.Join(validToolChoices, ", ")))
	}
	if cfg.MaxRounds < 1 {
		problems = append(problems, "max_rounds must be at least 1")
	}
	if cfg.RequestTimeoutSecs < 1 {
		problems = append(problems, "request_timeout_secs must be at least 1")
	}
	if cfg.ToolTimeoutSecs < 1 {
		problems = append(problems, "tool_timeout_secs must be at least 1")
	}
	if cfg.HistoryWarn < 0 {
		problems = append(problems, "history_warn must not be negative")
	}

	if len(missingFields) > 0 {
		problems = append([]string{"missing required configuration fields: " + strings.Join(missingFields, ", ")}, problems...)
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// LoadConfig decodes the file at path over the defaults. The format is chosen
// by extension: .toml, or .yaml/.yml. The result is not validated so that
// command line overrides can still be applied.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .toml, .yaml or .yml)", ext)
	}

	return cfg, nil
}

// LoadConfigOrDefault loads path, falling back to the defaults when the file
// does not exist and was not explicitly requested.
func LoadConfigOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		logger.Debugf("No config file at %s, using defaults", path)
		return DefaultConfig(), nil
	}

	logger.Debugf("Loading configuration from %s", path)
	return LoadConfig(path)
}

// GetConfigPath returns the config path from the environment or the default.
func GetConfigPath() string {
	if path := os.Getenv(internal.ENV_CONFIG_PATH); path != "" {
		return path
	}
	return internal.DEFAULT_CONFIG_PATH
}

// SaveConfig writes cfg to path, choosing the encoder by extension.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for config file: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			logger.Warnf("failed to close config file: %v", err)
		}
	}(file)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewEncoder(file).Encode(cfg)
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		encoder.SetIndent(2)
		err = encoder.Encode(cfg)
		if err == nil {
			err = encoder.Close()
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (use .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
