package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/command"
)

func main() {
	os.Exit(run(context.Background(), os.Args))
}

func run(ctx context.Context, args []string) int {
	err := command.App().RunContext(ctx, args)
	if err == nil {
		return 0
	}

	code := 1
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	return code
}
