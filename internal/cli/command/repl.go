package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/repl"
)

// REPLCommand starts interactive mode.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start interactive mode with one shared session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write the history file",
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	historyFile := ""
	if !c.Bool("no-history") && rt.ConfigPath != "" {
		historyFile = filepath.Join(filepath.Dir(rt.ConfigPath), "history")
	}

	exec := func(ctx context.Context, args []string) error {
		if len(args) > 0 && (args[0] == "repl" || args[0] == "shell") {
			return fmt.Errorf("already in interactive mode")
		}
		app := App(WithRuntime(rt), WithOutput(c.App.Writer, c.App.ErrWriter))
		app.Reader = c.App.Reader
		return app.RunContext(ctx, append([]string{c.App.Name}, args...))
	}

	fmt.Fprintf(c.App.Writer, "tokgate interactive mode, session %s. Type \"help\" for builtins.\n",
		rt.Session.Info().State)
	return repl.New(exec,
		repl.WithInput(c.App.Reader),
		repl.WithOutput(c.App.Writer),
		repl.WithLocation(rt.Router),
		repl.WithHistory(repl.NewHistory(historyFile)),
	).Run(commandContext(c))
}
