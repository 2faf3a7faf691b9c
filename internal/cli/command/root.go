package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/cli/output"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/storage/memory"
)

const runtimeKey = "runtime"

// AppOption configures the CLI application.
type AppOption func(*appOptions)

type appOptions struct {
	stdout  io.Writer
	stderr  io.Writer
	space   *memory.Space
	runtime *Runtime
}

// WithOutput sets where command output and logs are written.
func WithOutput(stdout, stderr io.Writer) AppOption {
	return func(o *appOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithMemorySpace backs the memory session store with sp.
func WithMemorySpace(sp *memory.Space) AppOption {
	return func(o *appOptions) {
		o.space = sp
	}
}

// WithRuntime reuses an existing runtime instead of building one. The
// caller keeps ownership and closes it.
func WithRuntime(rt *Runtime) AppOption {
	return func(o *appOptions) {
		o.runtime = rt
	}
}

// App creates the CLI application.
func App(opts ...AppOption) *cli.App {
	o := &appOptions{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	app := &cli.App{
		Name:      buildinfo.Name,
		Usage:     "Bearer-token session client for a JSON API",
		Version:   buildinfo.Get().Version,
		Writer:    o.stdout,
		ErrWriter: o.stderr,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			StatusCommand(),
			FetchCommand(),
			ArticlesCommand(),
			WatchCommand(),
			ServeCommand(),
			ValidateCommand(),
			ConfigCommand(),
			VersionCommand(),
			REPLCommand(),
		},
		Metadata: map[string]any{},
		// Exit codes are applied by main, never from inside Run.
		ExitErrHandler: func(*cli.Context, error) {},
		Before: func(c *cli.Context) error {
			if o.runtime != nil {
				c.App.Metadata[runtimeKey] = o.runtime
				return nil
			}
			if skipRuntime(c) {
				return nil
			}
			rt, err := buildRuntime(c, o)
			if err != nil {
				return err
			}
			c.App.Metadata[runtimeKey] = rt
			return nil
		},
		After: func(c *cli.Context) error {
			if o.runtime != nil {
				return nil
			}
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				delete(c.App.Metadata, runtimeKey)
				return rt.Close()
			}
			return nil
		},
	}
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path",
			EnvVars: []string{"TOKGATE_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"b"},
			Usage:   "Backend API base URL (overrides api.base_url)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config  string
	BaseURL string
	Output  string
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		BaseURL: c.String("base-url"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

// overrides maps the global flags that were set to config keys.
func (f *GlobalFlags) overrides() map[string]any {
	m := map[string]any{}
	if f.BaseURL != "" {
		m["api.base_url"] = f.BaseURL
	}
	if f.Output != "" {
		m["output"] = f.Output
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	return m
}

// skipRuntime reports whether the invoked command works without a
// session: help, version and the config helpers.
func skipRuntime(c *cli.Context) bool {
	switch c.Args().First() {
	case "", "help", "h", "version", "config":
		return true
	}
	return false
}

func buildRuntime(c *cli.Context, o *appOptions) (*Runtime, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := config.LoadWithOverrides(flags.Config, flags.overrides())
	if err != nil {
		return nil, err
	}
	return NewRuntime(c.Context, cfg, flags.Config, RuntimeOptions{
		LogOutput: o.stderr,
		Space:     o.space,
	})
}

// GetRuntime retrieves the runtime built in Before.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, fmt.Errorf("%s: runtime not initialized", c.Command.Name)
}

// render writes data in the configured output format.
func render(c *cli.Context, rt *Runtime, data any) error {
	name := rt.Config.Output
	if flag := c.String("output"); flag != "" {
		name = flag
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

// commandContext returns the context commands use for network calls.
func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
