package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/pkg/token"
)

// LoginCommand stores a bearer token and starts the session.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Start a session with a bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Bearer token (JWT); \"-\" reads it from stdin",
				EnvVars: []string{"TOKGATE_TOKEN"},
			},
		},
		Action: sessionLogin,
	}
}

// LogoutCommand ends the session.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "End the session and clear the stored token",
		Action: sessionLogout,
	}
}

// StatusCommand shows the session.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:    "status",
		Aliases: []string{"whoami"},
		Usage:   "Show the session state and token claims",
		Action:  sessionStatus,
	}
}

func sessionLogin(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	tok := c.String("token")
	if tok == "-" {
		tok, err = readToken(c.App.Reader)
		if err != nil {
			return err
		}
	}
	if tok == "" {
		return domain.ErrMissingArgument.WithDetails("--token is required")
	}
	if err := rt.Session.Validate(tok); err != nil {
		return err
	}
	if err := rt.Session.Login(tok); err != nil {
		return err
	}
	rt.Router.Navigate(rt.Config.Session.HomePath)

	info := rt.Session.Info()
	fmt.Fprintf(c.App.Writer, "Logged in as %s (token %s, expires in %s)\n",
		orDash(info.Subject), token.Fingerprint(tok), info.Remaining.Round(time.Second))
	return nil
}

func sessionLogout(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	if !rt.Session.HasToken() {
		fmt.Fprintln(c.App.Writer, "Not logged in")
		return nil
	}
	rt.Session.Logout()
	fmt.Fprintln(c.App.Writer, "Logged out")
	return nil
}

func sessionStatus(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	return render(c, rt, rt.Session.Info())
}

func readToken(r io.Reader) (string, error) {
	if r == nil {
		return "", domain.ErrMissingArgument.WithDetails("no input to read the token from")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
