package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"llmchat/internal/ai/tools"
	"llmchat/internal/config"
	"llmchat/internal/logger"
)

var ErrConfigExists = errors.New("config file already exists")

// Wizard walks the user through writing a first config file.
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{reader: bufio.NewReader(in), out: out}
}

// Run prompts for the provider, model, tools and round limit, then saves the
// result to path. An existing file is only replaced when force is set.
func (w *Wizard) Run(path string, force bool) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cyan := logger.GetColorFunc("cyan")
	green := logger.GetColorFunc("green")
	yellow := logger.GetColorFunc("yellow")
	blue := logger.GetColorFunc("blue")

	fmt.Fprintln(w.out, blue("╔═══════════════════════════════════════════════╗"))
	fmt.Fprintln(w.out, blue("║            ")+yellow("LLMCHAT SETUP - FIRST RUN")+blue("          ║"))
	fmt.Fprintln(w.out, blue("╚═══════════════════════════════════════════════╝"))
	fmt.Fprintln(w.out, "Press enter to accept the value in brackets.")
	fmt.Fprintln(w.out)

	cfg := config.DefaultConfig()
	providers := slices.Sorted(maps.Keys(config.Providers))

	for {
		answer, err := w.ask(cyan("[1/4] ")+fmt.Sprintf("Provider (%s)", strings.Join(providers, ", ")), cfg.Provider)
		if err != nil {
			return nil, err
		}
		answer = strings.ToLower(answer)
		if _, ok := config.Providers[answer]; ok {
			cfg.Provider = answer
			break
		}
		fmt.Fprintf(w.out, "Unknown provider %q\n", answer)
	}

	preset := config.Providers[cfg.Provider]
	var err error
	cfg.Model, err = w.ask(cyan("[2/4] ")+"Model", preset.DefaultModel)
	if err != nil {
		return nil, err
	}

	for {
		answer, err := w.ask(cyan("[3/4] ")+fmt.Sprintf("Tools, comma separated or none (%s)", strings.Join(tools.BuiltinToolNames, ", ")), strings.Join(cfg.Tools, ","))
		if err != nil {
			return nil, err
		}
		selected, unknown := parseToolList(answer)
		if len(unknown) == 0 {
			cfg.Tools = selected
			break
		}
		fmt.Fprintf(w.out, "Unknown tools: %s\n", strings.Join(unknown, ", "))
	}

	for {
		answer, err := w.ask(cyan("[4/4] ")+"Maximum model requests per turn", strconv.Itoa(cfg.MaxRounds))
		if err != nil {
			return nil, err
		}
		if n, convErr := strconv.Atoi(answer); convErr == nil && n > 0 {
			cfg.MaxRounds = n
			break
		}
		fmt.Fprintln(w.out, "Please enter a positive number")
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return nil, err
	}

	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "%s Configuration written to %s\n", green("✓"), yellow(path))
	fmt.Fprintf(w.out, "%s Set %s before starting a chat\n", green("✓"), yellow(preset.KeyEnv))
	return cfg, nil
}

// ask prints a prompt and returns the trimmed answer, or fallback when the
// answer is empty. EOF on an empty line also selects the fallback.
func (w *Wizard) ask(prompt, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, fallback)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	line, err := w.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "" && fallback == "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return fallback, nil
	}
	return line, nil
}

func parseToolList(answer string) (selected, unknown []string) {
	selected = []string{}
	if strings.EqualFold(strings.TrimSpace(answer), "none") {
		return selected, nil
	}
	for _, name := range strings.Split(answer, ",") {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(selected, name) {
			continue
		}
		if !slices.Contains(tools.BuiltinToolNames, name) {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, name)
	}
	return selected, unknown
}
