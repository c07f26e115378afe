package repl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"llmchat/internal/logger"
)

const commandPrefix = "/"

type CommandFunc func(r *REPL, args []string) error

type Command struct {
	Name        string
	Description string
	Usage       string
	Handler     CommandFunc
}

func (r *REPL) RegisterCommand(name, description, usage string, handler CommandFunc) {
	r.commands[name] = Command{
		Name:        name,
		Description: description,
		Usage:       usage,
		Handler:     handler,
	}
}

func (r *REPL) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

func (r *REPL) registerBuiltinCommands() {
	r.RegisterCommand("help", "List the available commands", "", helpCmd)
	r.RegisterCommand("history", "Show how many messages the conversation holds", "", historyCmd)
	r.RegisterCommand("tools", "List the tools offered to the model", "", toolsCmd)
	r.RegisterCommand("save", "Write the conversation history to a JSON file", "<file>", saveCmd)
}

// handleCommand runs input when it names a command. It reports whether input
// was consumed.
func (r *REPL) handleCommand(input string) bool {
	if !strings.HasPrefix(input, commandPrefix) {
		return false
	}

	parts := strings.Fields(strings.TrimPrefix(input, commandPrefix))
	if len(parts) == 0 {
		return false
	}

	cmd, exists := r.GetCommand(strings.ToLower(parts[0]))
	if !exists {
		fmt.Fprintln(r.opts.Out, r.dim(fmt.Sprintf("unknown command %s%s, try %shelp", commandPrefix, parts[0], commandPrefix)))
		return true
	}

	if err := cmd.Handler(r, parts[1:]); err != nil {
		logger.Errorf("%s%s: %v", commandPrefix, cmd.Name, err)
	}
	return true
}

func helpCmd(r *REPL, args []string) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cmd := r.commands[name]
		usage := commandPrefix + name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		fmt.Fprintln(r.opts.Out, r.dim(fmt.Sprintf("%-16s %s", usage, cmd.Description)))
	}
	return nil
}

func historyCmd(r *REPL, args []string) error {
	fmt.Fprintln(r.opts.Out, r.dim(fmt.Sprintf("%d messages in this conversation", r.session.Len())))
	return nil
}

func toolsCmd(r *REPL, args []string) error {
	if len(r.opts.Tools) == 0 {
		fmt.Fprintln(r.opts.Out, r.dim("no tools enabled"))
		return nil
	}
	for _, name := range r.opts.Tools {
		fmt.Fprintln(r.opts.Out, r.dim("- "+name))
	}
	return nil
}

func saveCmd(r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %ssave <file>", commandPrefix)
	}

	data, err := json.MarshalIndent(r.session.History(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	path := filepath.Clean(args[0])
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintln(r.opts.Out, r.dim("history saved to "+path))
	return nil
}
