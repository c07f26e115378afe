package initialization

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"llmchat/internal/ai"
	"llmchat/internal/config"
	"llmchat/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestInitialize(t *testing.T) {
	logger.SetOutput(io.Discard)
	t.Setenv("LLMCHAT_TEST_KEY", "sk-abc")
	path := writeConfig(t, `
api_key_env = "LLMCHAT_TEST_KEY"
model = "gpt-4o-mini"
log_dir = ""
tools = ["get_weather", "fetch_webpage"]
`)

	app, err := Initialize(Options{ConfigPath: path, ConfigExplicit: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "Bearer sk-abc", app.Headers["Authorization"])
	assert.Equal(t, 2, app.Registry.Len())
	assert.Equal(t, config.Providers["openai"].BaseURL, app.Config.BaseURL)

	session := app.NewSession(ai.Hooks{})
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, 0, session.Len())
}

func TestInitializeOverrides(t *testing.T) {
	logger.SetOutput(io.Discard)
	path := writeConfig(t, `log_dir = ""`)

	app, err := Initialize(Options{
		ConfigPath: path,
		SkipAPIKey: true,
		Override: func(cfg *config.Config) {
			cfg.Provider = "gemini"
			cfg.Tools = nil
		},
	})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, config.Providers["gemini"].BaseURL, app.Config.BaseURL)
	assert.Equal(t, 0, app.Registry.Len())
	assert.Empty(t, app.Headers)
}

func TestInitializeErrors(t *testing.T) {
	logger.SetOutput(io.Discard)

	_, err := Initialize(Options{ConfigPath: filepath.Join(t.TempDir(), "nope.toml"), ConfigExplicit: true})
	assert.Error(t, err)

	_, err = Initialize(Options{ConfigPath: writeConfig(t, "log_dir = \"\"\ntools = [\"teleport\"]"), SkipAPIKey: true})
	assert.ErrorContains(t, err, "teleport")

	_, err = Initialize(Options{ConfigPath: writeConfig(t, "log_dir = \"\"\nmax_rounds = 0"), SkipAPIKey: true})
	assert.ErrorContains(t, err, "max_rounds")
}
