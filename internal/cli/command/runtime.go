package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/cli/connection"
	"github.com/yndnr/tokgate/internal/guard"
	"github.com/yndnr/tokgate/internal/infra/tlsroots"
	"github.com/yndnr/tokgate/internal/request"
	"github.com/yndnr/tokgate/internal/session"
	"github.com/yndnr/tokgate/internal/storage"
	"github.com/yndnr/tokgate/internal/storage/memory"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// Runtime holds everything a command needs. It is built once per process
// and shared by every command the REPL runs.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Log        logger.Logger
	Metrics    *metric.Registry
	Session    *session.Store
	Router     *guard.Router
	Builder    *request.Builder
	Client     *connection.HTTPClient

	backend storage.Backend
	certs   *tlsroots.Watcher
}

// RuntimeOptions are process-level inputs that do not come from the
// config file.
type RuntimeOptions struct {
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer

	// Space backs the memory session store; tests share one between runs.
	Space *memory.Space
}

// NewRuntime wires the session store, the request builder and the HTTP
// client from cfg and restores any persisted session.
func NewRuntime(ctx context.Context, cfg *config.Config, path string, opts RuntimeOptions) (*Runtime, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: opts.LogOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Log:        log,
		Metrics:    metric.NewRegistry(),
	}

	rt.backend, err = storage.Open(ctx, storage.Config{
		Kind:       cfg.Session.Store,
		File:       cfg.Session.File,
		Passphrase: cfg.Session.Passphrase,
		Cipher:     cfg.Session.Cipher,
		BadgerDir:  cfg.Session.BadgerDir,
		RedisAddr:  cfg.Session.RedisAddr,
		Key:        cfg.Session.RedisKey,
		Space:      opts.Space,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	tlsOpts := tlsroots.Options{
		CAFile:   cfg.API.CAFile,
		CertFile: cfg.API.ClientCert,
		KeyFile:  cfg.API.ClientKey,
	}
	clientOpts := []connection.Option{
		connection.WithRateLimit(cfg.API.RateLimit),
		connection.WithLogger(log),
		connection.WithMetrics(rt.Metrics),
	}
	if tlsOpts.Enabled() {
		tlsCfg, certs, err := tlsroots.ClientConfig(tlsOpts, tlsroots.WithLogger(log))
		if err != nil {
			rt.backend.Close()
			return nil, fmt.Errorf("load TLS config: %w", err)
		}
		rt.certs = certs
		clientOpts = append(clientOpts, connection.WithTLSConfig(tlsCfg))
	}
	rt.Client = connection.NewHTTPClient(clientOpts...)

	paths := guard.Paths{Entry: cfg.Session.EntryPath, Home: cfg.Session.HomePath}
	rt.Session = session.New(
		session.WithPersister(rt.backend),
		session.WithNavigator(session.NavigatorFunc(func(path string) { rt.Router.Navigate(path) })),
		session.WithInterval(cfg.Session.WatchInterval),
		session.WithEntryPath(paths.Entry),
		session.WithLogger(log),
		session.WithMetrics(rt.Metrics),
	)
	rt.Router = guard.NewRouter(rt.Session, paths)

	if err := rt.Metrics.Register(metric.NewSessionCollector(rt.Session)); err != nil {
		rt.Close()
		return nil, fmt.Errorf("register session metrics: %w", err)
	}

	rt.Builder = request.NewBuilder(cfg.API.BaseURL, rt.Session,
		request.WithForwardHeaders(cfg.API.ForwardHeaders...),
		request.WithDefaultTimeout(cfg.API.Timeout),
		request.WithLogger(log),
		request.WithMetrics(rt.Metrics),
	)

	rt.Session.Init(ctx)
	// A token that expired while the CLI was not running is dropped now
	// rather than on the first watcher tick.
	rt.Session.CheckExpiration()
	if rt.certs != nil {
		rt.certs.StartAsync()
	}
	return rt, nil
}

// Close stops the watcher and releases the session backend.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Session != nil {
		errs = append(errs, rt.Session.Close())
	}
	if rt.certs != nil {
		rt.certs.Stop()
	}
	if rt.backend != nil {
		errs = append(errs, rt.backend.Close())
	}
	return errors.Join(errs...)
}
