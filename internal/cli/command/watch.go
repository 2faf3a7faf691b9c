package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/confloader"
	"github.com/yndnr/tokgate/internal/infra/shutdown"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// shutdownTimeout bounds the cleanup after watch or serve is interrupted.
const shutdownTimeout = 10 * time.Second

// errSessionEnded cancels the watch loop when the session logs out.
var errSessionEnded = errors.New("session ended")

// WatchCommand keeps the session watcher running in the foreground.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the expiration watcher until the session ends or the process is interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (overrides metrics.addr)",
			},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	if !rt.Session.HasToken() {
		return domain.ErrNotAuthenticated.WithDetails("run `tokgate login` first")
	}

	ctx, cancel := context.WithCancelCause(commandContext(c))
	defer cancel(nil)

	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(rt.Log))

	addr := rt.Config.Metrics.Addr
	if c.IsSet("metrics-addr") {
		addr = c.String("metrics-addr")
	}
	if addr != "" {
		srv, err := serveMetrics(rt, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Metrics on http://%s/metrics\n", srv.Addr())
		sh.OnShutdown(srv.Shutdown)
	}

	if stop := watchConfig(rt); stop != nil {
		sh.OnShutdown(func(context.Context) error { return stop() })
	}

	rt.Session.StartWatcher()
	sh.OnShutdown(func(context.Context) error {
		rt.Session.StopWatcher()
		return nil
	})

	info := rt.Session.Info()
	fmt.Fprintf(c.App.Writer, "Watching session of %s, expires in %s (Ctrl+C to stop)\n",
		orDash(info.Subject), info.Remaining.Round(time.Second))

	go waitForLogout(ctx, rt, cancel)

	err = sh.Wait(ctx)
	if errors.Is(context.Cause(ctx), errSessionEnded) {
		fmt.Fprintf(c.App.Writer, "Session ended, now at %s\n", rt.Router.Current())
	}
	return err
}

// waitForLogout cancels ctx once the session no longer holds a token.
func waitForLogout(ctx context.Context, rt *Runtime, cancel context.CancelCauseFunc) {
	interval := rt.Config.Session.WatchInterval
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !rt.Session.HasToken() {
				cancel(errSessionEnded)
				return
			}
		}
	}
}

func serveMetrics(rt *Runtime, addr string) (*httpserver.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", rt.Metrics.Handler())

	srv := httpserver.New(addr, mux)
	if err := srv.Listen(); err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			rt.Log.Error("metrics server stopped", "error", err)
		}
	}()
	return srv, nil
}

// watchConfig reloads log.level when the config file changes. It returns
// nil when there is no file to watch.
func watchConfig(rt *Runtime) func() error {
	path := config.ExpandHome(rt.ConfigPath)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.Log))
	if err != nil {
		rt.Log.Warn("config hot reload disabled", "error", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		rt.Log.Warn("config hot reload disabled", "error", err)
		return nil
	}
	w.OnChange(func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			rt.Log.Warn("ignoring invalid config change", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			rt.Log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w.Stop
}
