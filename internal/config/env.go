package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"llmchat/internal"
	"llmchat/internal/logger"
)

// ErrMissingAPIKey is returned when none of the key variables is set.
var ErrMissingAPIKey = errors.New("API key not found")

// LoadEnv loads variables from the given .env files. Missing files are skipped;
// variables already present in the environment win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		logger.Debugf("Loaded environment from %s", path)
	}
	return nil
}

// GetEnvToken returns the first non-empty environment variable value from the provided keys
func GetEnvToken(keys ...string) (string, string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			logger.Debugf("Using token from environment variable: %s", key)
			return value, key
		}
	}
	return "", ""
}

// APIKeyEnvs lists the variables consulted for the API key, in order.
func (c *Config) APIKeyEnvs() []string {
	var keys []string
	if c.APIKeyEnv != "" {
		keys = append(keys, c.APIKeyEnv)
	}
	if preset, ok := Providers[strings.ToLower(c.Provider)]; ok {
		keys = append(keys, preset.KeyEnv)
	}
	return append(keys, internal.ENV_FALLBACK_API_KEY)
}

// ResolveAPIKey returns the API key and the variable it was read from.
func ResolveAPIKey(cfg *Config) (string, string, error) {
	keys := cfg.APIKeyEnvs()
	key, source := GetEnvToken(keys...)
	if key == "" {
		return "", "", fmt.Errorf("%w: set one of %s", ErrMissingAPIKey, strings.Join(keys, ", "))
	}
	return key, source, nil
}
