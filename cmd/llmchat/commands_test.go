package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"llmchat/internal/config"
)

func parseFlags(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cmd := &cli.Command{
		Name:  "llmchat",
		Flags: globalFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyFlags(c)(cfg)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"llmchat"}, args...)))
	return cfg
}

func TestApplyFlags(t *testing.T) {
	cfg := parseFlags(t,
		"--provider", "gemini",
		"--model", "gemini-2.0-flash",
		"--tool", "fetch_webpage",
		"--max-rounds", "3",
		"--timeout", "45s",
		"--tool-errors-as-results=false",
		"--debug",
	)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, []string{"fetch_webpage"}, cfg.Tools)
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.Equal(t, 45, cfg.RequestTimeoutSecs)
	assert.False(t, cfg.ToolErrorsAsResults)
	assert.True(t, cfg.Debug)
}

func TestApplyFlagsKeepsUnsetValues(t *testing.T) {
	cfg := parseFlags(t)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestApplyFlagsFromEnvironment(t *testing.T) {
	t.Setenv("LLMCHAT_MODEL", "from-env")
	cfg := parseFlags(t, "--no-tools")
	assert.Equal(t, "from-env", cfg.Model)
	assert.Empty(t, cfg.Tools)
}

func TestBanner(t *testing.T) {
	banner := getBanner("9.9.9")
	assert.Contains(t, banner, "\x1b[38;2;")
	assert.True(t, strings.HasSuffix(banner, "\x1b[0m\n"))
	assert.Contains(t, banner, "9")
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"chat", "stream", "ask", "init", "tools"}, names)
	assert.Equal(t, "chat", app.DefaultCommand)
}

func TestTimeoutFlagRoundsUp(t *testing.T) {
	tests := []struct {
		flag string
		want int
	}{
		{"500ms", 1},
		{"1s", 1},
		{"1500ms", 2},
		{"2m", 120},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cfg := parseFlags(t, "--timeout", tt.flag)
			assert.Equal(t, tt.want, cfg.RequestTimeoutSecs)
			assert.NoError(t, config.ValidateConfig(withEndpoint(cfg)))
		})
	}
}

func withEndpoint(cfg *config.Config) *config.Config {
	cfg.ApplyProviderDefaults()
	return cfg
}
