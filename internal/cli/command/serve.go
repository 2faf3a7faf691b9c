package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/guard"
	"github.com/yndnr/tokgate/internal/infra/shutdown"
	"github.com/yndnr/tokgate/internal/server/httpserver"
)

// DefaultListenAddr is where serve listens unless --listen is given.
const DefaultListenAddr = "127.0.0.1:8080"

// ServeCommand runs the gateway.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the session gateway over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen address",
				Value:   DefaultListenAddr,
			},
			&cli.StringSliceFlag{
				Name:  "cors-origin",
				Usage: "Allowed CORS origin (repeatable, default any)",
			},
			&cli.Float64Flag{
				Name:  "rate-limit",
				Usage: "Requests per second per client IP, 0 disables",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	gw := httpserver.NewGateway(httpserver.Deps{
		Session:     rt.Session,
		Builder:     rt.Builder,
		Client:      rt.Client,
		Paths:       guard.Paths{Entry: rt.Config.Session.EntryPath, Home: rt.Config.Session.HomePath},
		Metrics:     rt.Metrics,
		Log:         rt.Log,
		Debounce:    rt.Config.Form.Debounce,
		RateLimit:   c.Float64("rate-limit"),
		CORSOrigins: c.StringSlice("cors-origin"),
	})

	srv := httpserver.New(c.String("listen"), gw.Handler())
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("listen on %s: %w", c.String("listen"), err)
	}

	parent := commandContext(c)
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			cancel(fmt.Errorf("gateway: %w", err))
		}
	}()

	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(rt.Log))
	sh.OnShutdown(func(context.Context) error {
		rt.Session.StopWatcher()
		return nil
	})
	sh.OnShutdown(srv.Shutdown)

	rt.Log.Info("gateway listening", "addr", srv.Addr(), "api", rt.Builder.BaseURL())
	fmt.Fprintf(c.App.Writer, "Gateway on http://%s\n", srv.Addr())

	if err := sh.Wait(ctx); err != nil {
		return err
	}
	// Only a server failure cancels ctx while parent is still live.
	if parent.Err() == nil {
		return context.Cause(ctx)
	}
	return nil
}
