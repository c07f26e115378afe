package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"llmchat/internal"
	"llmchat/internal/ai"
	"llmchat/internal/config"
	"llmchat/internal/initialization"
	"llmchat/internal/repl"
	"llmchat/internal/setup"
)

func env(name string) cli.ValueSourceChain {
	return cli.EnvVars(internal.ENV_PREFIX + name)
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a .toml or .yaml config file", Sources: cli.EnvVars(internal.ENV_CONFIG_PATH)},
		&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "endpoint preset: openai or gemini", Sources: env("PROVIDER")},
		&cli.StringFlag{Name: "base-url", Usage: "chat completions endpoint URL", Sources: env("BASE_URL")},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model id sent with every request", Sources: env("MODEL")},
		&cli.StringFlag{Name: "api-key-env", Usage: "environment variable holding the API key", Sources: env("API_KEY_ENV")},
		&cli.StringFlag{Name: "tool-choice", Usage: "tool selection mode: auto, none or required", Sources: env("TOOL_CHOICE")},
		&cli.IntFlag{Name: "max-rounds", Usage: "maximum model requests per user turn", Sources: env("MAX_ROUNDS")},
		&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "timeout for each model request", Sources: env("TIMEOUT")},
		&cli.StringSliceFlag{Name: "tool", Usage: "enable a built-in tool, replacing the configured list (repeatable)", Sources: env("TOOLS")},
		&cli.BoolFlag{Name: "no-tools", Usage: "do not offer any tools to the model", Sources: env("NO_TOOLS")},
		&cli.BoolFlag{Name: "tool-errors-as-results", Usage: "report failed tool calls to the model instead of aborting the turn", Sources: env("TOOL_ERRORS_AS_RESULTS")},
		&cli.StringFlag{Name: "transcript-dir", Usage: "directory for conversation transcripts", Sources: env("TRANSCRIPT_DIR")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "print debug and model traffic logs", Sources: env("DEBUG")},
		&cli.BoolFlag{Name: "no-banner", Usage: "do not print the start-up banner", Sources: env("NO_BANNER")},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    internal.APP_NAME,
		Usage:   "chat with an OpenAI-compatible model from the terminal",
		Version: internal.APP_VERSION,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "interactive conversation with tool calling",
				Action: runChat(false),
			},
			{
				Name:   "stream",
				Usage:  "interactive conversation with streamed replies (no tools)",
				Action: runChat(true),
			},
			{
				Name:      "ask",
				Usage:     "send a single prompt and print the reply",
				ArgsUsage: "<prompt...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stream", Aliases: []string{"s"}, Usage: "stream the reply"},
				},
				Action: runAsk,
			},
			{
				Name:  "init",
				Usage: "write a config file interactively",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing config file"},
				},
				Action: runInit,
			},
			{
				Name:   "tools",
				Usage:  "list the enabled tools and their parameters",
				Action: runTools,
			},
		},
		DefaultCommand: "chat",
	}
}

// applyFlags copies explicitly set flags over the file configuration.
func applyFlags(cmd *cli.Command) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		if cmd.IsSet("provider") {
			cfg.Provider = cmd.String("provider")
		}
		if cmd.IsSet("base-url") {
			cfg.BaseURL = cmd.String("base-url")
		}
		if cmd.IsSet("model") {
			cfg.Model = cmd.String("model")
		}
		if cmd.IsSet("api-key-env") {
			cfg.APIKeyEnv = cmd.String("api-key-env")
		}
		if cmd.IsSet("tool-choice") {
			cfg.ToolChoice = cmd.String("tool-choice")
		}
		if cmd.IsSet("max-rounds") {
			cfg.MaxRounds = cmd.Int("max-rounds")
		}
		if cmd.IsSet("timeout") {
			cfg.RequestTimeoutSecs = timeoutSecs(cmd.Duration("timeout"))
		}
		if cmd.IsSet("tool") {
			cfg.Tools = cmd.StringSlice("tool")
		}
		if cmd.Bool("no-tools") {
			cfg.Tools = nil
		}
		if cmd.IsSet("tool-errors-as-results") {
			cfg.ToolErrorsAsResults = cmd.Bool("tool-errors-as-results")
		}
		if cmd.IsSet("transcript-dir") {
			cfg.TranscriptDir = cmd.String("transcript-dir")
		}
		if cmd.IsSet("debug") {
			cfg.Debug = cmd.Bool("debug")
		}
	}
}

// timeoutSecs rounds a flag duration up to whole seconds so that sub-second
// values do not become zero.
func timeoutSecs(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func initialize(cmd *cli.Command, skipKey bool) (*initialization.App, error) {
	return initialization.Initialize(initialization.Options{
		ConfigPath:     cmd.String("config"),
		ConfigExplicit: cmd.IsSet("config"),
		Override:       applyFlags(cmd),
		SkipAPIKey:     skipKey,
	})
}

func toolNames(app *initialization.App) []string {
	var names []string
	for _, tool := range app.Registry.GetAllTools() {
		names = append(names, tool.Name())
	}
	return names
}

func sessionHooks(app *initialization.App, w io.Writer) ai.Hooks {
	if !app.Config.ShowToolCalls {
		return ai.Hooks{}
	}
	return repl.ToolCallPrinter(w)
}

func runChat(stream bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := initialize(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		if !cmd.Bool("no-banner") {
			fmt.Fprint(os.Stdout, getBanner(internal.APP_VERSION))
		}
		mode := "tool calling"
		if stream {
			mode = "streaming"
		}
		fmt.Fprintln(os.Stdout, color.HiBlackString("%s via %s (%s). Type %q to quit.", app.Config.Model, app.Config.Provider, mode, internal.EXIT_COMMAND))

		session := app.NewSession(sessionHooks(app, os.Stdout))
		loop := repl.New(session, repl.Options{
			In:     os.Stdin,
			Out:    os.Stdout,
			Stream: stream,
			Tools:  toolNames(app),
		})

		err = loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return errors.New("no prompt given")
	}

	app, err := initialize(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	session := app.NewSession(sessionHooks(app, os.Stderr))
	return repl.New(session, repl.Options{Out: os.Stdout, Stream: cmd.Bool("stream")}).RunOnce(ctx, prompt)
}

func runTools(ctx context.Context, cmd *cli.Command) error {
	app, err := initialize(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	tools := app.Registry.GetAllTools()
	if len(tools) == 0 {
		fmt.Fprintln(os.Stdout, "no tools enabled")
		return nil
	}

	for _, tool := range tools {
		params, err := json.MarshalIndent(tool.ToOpenAITool().Function.Parameters, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n  %s\n  %s\n", color.HiGreenString("%s", tool.Name()), tool.Description(), params)
	}
	return nil
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = config.GetConfigPath()
	}

	_, err := setup.NewWizard(os.Stdin, os.Stdout).Run(path, cmd.Bool("force"))
	return err
}
