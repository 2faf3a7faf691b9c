package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// Executor runs one command line, already split into arguments.
type Executor func(ctx context.Context, args []string) error

// Location is where the REPL is. guard.Router implements it.
type Location interface {
	Navigate(path string)
	Current() string
	History() []string
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	location  Location
	completer *Completer
	history   *History
	prompt    string
}

// Option configures a REPL.
type Option func(*REPL)

// WithInput sets the input reader.
func WithInput(r io.Reader) Option {
	return func(rp *REPL) {
		if r != nil {
			rp.input = r
		}
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(rp *REPL) {
		if w != nil {
			rp.output = w
		}
	}
}

// WithLocation enables the go and where builtins and shows the current
// path in the prompt.
func WithLocation(l Location) Option {
	return func(rp *REPL) {
		rp.location = l
	}
}

// WithHistory replaces the in-memory history.
func WithHistory(h *History) Option {
	return func(rp *REPL) {
		if h != nil {
			rp.history = h
		}
	}
}

// WithCompleter replaces the default completer.
func WithCompleter(c *Completer) Option {
	return func(rp *REPL) {
		if c != nil {
			rp.completer = c
		}
	}
}

// WithPrompt sets the prompt prefix.
func WithPrompt(p string) Option {
	return func(rp *REPL) {
		rp.prompt = p
	}
}

// New creates a REPL that hands command lines to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(""),
		prompt:    "tokgate",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until exit, EOF or ctx ends. Command errors are
// printed and do not stop the loop.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: cannot load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: cannot save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.promptText())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(redactLine(line))
		done, cerr := r.dispatch(ctx, line)
		if cerr != nil {
			fmt.Fprintf(r.output, "Error: %v\n", cerr)
		}
		if done || eof {
			return nil
		}
	}
}

func (r *REPL) promptText() string {
	if r.location != nil {
		return r.prompt + ":" + r.location.Current() + "> "
	}
	return r.prompt + "> "
}

// dispatch runs a builtin or hands the line to the executor. It reports
// whether the loop should end.
func (r *REPL) dispatch(ctx context.Context, line string) (bool, error) {
	args, err := SplitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "help":
		if len(args) == 1 {
			r.printHelp()
			return false, nil
		}
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return false, nil
	case "complete":
		for _, s := range r.completer.Complete(strings.Join(args[1:], " ")) {
			fmt.Fprintln(r.output, s)
		}
		return false, nil
	case "go":
		if r.location == nil {
			return false, errors.New("navigation is not available")
		}
		if len(args) != 2 {
			return false, errors.New("usage: go PATH")
		}
		r.location.Navigate(args[1])
		fmt.Fprintln(r.output, r.location.Current())
		return false, nil
	case "where":
		if r.location == nil {
			return false, errors.New("navigation is not available")
		}
		fmt.Fprintln(r.output, r.location.Current())
		if prev := r.location.History(); len(prev) > 0 {
			fmt.Fprintf(r.output, "from: %s\n", strings.Join(prev, " -> "))
		}
		return false, nil
	}

	if r.exec == nil {
		return false, nil
	}
	return false, r.exec(ctx, args)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, `Builtins:
  go PATH        navigate; the route guard may redirect
  where          show the current location
  history        list previous lines
  complete TEXT  list commands starting with TEXT
  help           this text ("help COMMAND" for command help)
  exit, quit     leave

Any other line runs as a tokgate command, e.g. "status" or "fetch --auth /me".`)
}

// redactLine masks bearer tokens before a line is kept in history.
func redactLine(line string) string {
	fields := strings.Fields(line)
	changed := false
	for i, f := range fields {
		if logger.IsSensitiveValue(f) {
			fields[i] = logger.RedactString(f)
			changed = true
		}
	}
	if !changed {
		return line
	}
	return strings.Join(fields, " ")
}

// SplitArgs splits a line into arguments. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(ch)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
