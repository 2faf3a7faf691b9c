package repl

import (
	"sort"
	"strings"
)

// DefaultCommands are the lines offered for completion.
var DefaultCommands = []string{
	"login --token", "logout", "status",
	"fetch", "fetch --auth", "articles",
	"validate --schema login --field", "validate --schema article --field",
	"config show", "config path", "config validate",
	"version",
	"go", "where", "history", "complete", "help", "exit", "quit",
}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over commands, or DefaultCommands
// when none are given.
func NewCompleter(commands ...string) *Completer {
	if len(commands) == 0 {
		commands = DefaultCommands
	}
	sorted := append([]string(nil), commands...)
	sort.Strings(sorted)
	return &Completer{commands: sorted}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
