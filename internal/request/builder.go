package request

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token"
)

// Modes label built requests in metrics.
const (
	ModeReactive   = "reactive"
	ModeImperative = "imperative"
)

// DefaultForwardHeaders are forwarded from an incoming request.
var DefaultForwardHeaders = []string{"Cookie"}

// TokenSource provides the current session token.
type TokenSource interface {
	Token() string
}

// Builder produces request configurations for one API.
type Builder struct {
	baseURL string
	tokens  TokenSource
	forward []string
	timeout time.Duration
	log     logger.Logger
	metrics *metric.Registry
	group   singleflight.Group
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithForwardHeaders sets which incoming headers reactive requests forward.
func WithForwardHeaders(names ...string) BuilderOption {
	return func(b *Builder) {
		b.forward = names
	}
}

// WithDefaultTimeout sets the timeout applied when callers set none.
func WithDefaultTimeout(d time.Duration) BuilderOption {
	return func(b *Builder) {
		b.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder creates a Builder for baseURL reading tokens from tokens.
func NewBuilder(baseURL string, tokens TokenSource, opts ...BuilderOption) *Builder {
	b := &Builder{
		baseURL: baseURL,
		tokens:  tokens,
		forward: DefaultForwardHeaders,
		log:     logger.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BaseURL returns the API root.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Reactive builds a cached, deduplicated resource for path. Defaults are
// the base URL, Watch false and the ambient headers of the incoming
// request attached to ctx.
func (b *Builder) Reactive(ctx context.Context, path string, opts Options) *Resource {
	defaults := Config{
		BaseURL: b.baseURL,
		Path:    path,
		Headers: ambientHeaders(ctx, b.forward),
		Timeout: b.timeout,
	}
	cfg := b.build(ctx, ModeReactive, defaults, opts)

	key := opts.Key
	if key == "" {
		u, err := cfg.URL()
		if err != nil {
			u = cfg.BaseURL + cfg.Path
		}
		key = cfg.Method + " " + u
		if digest := headerDigest(cfg.Headers); digest != "" {
			key += " " + digest
		}
	}
	return &Resource{key: key, cfg: cfg, group: &b.group}
}

// headerDigest identifies a header set, so that requests differing in
// credentials or forwarded cookies never share a fetch. Values stay out
// of the key itself.
func headerDigest(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, http.CanonicalHeaderKey(k))
	}
	sort.Strings(names)

	canon := make(map[string]string, len(h))
	for k, v := range h {
		canon[http.CanonicalHeaderKey(k)] = v
	}
	var sb strings.Builder
	for _, k := range names {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(canon[k])
		sb.WriteByte('\n')
	}
	return token.Fingerprint(sb.String())
}

// Imperative builds a one-shot configuration for path. Ambient headers
// are not forwarded.
func (b *Builder) Imperative(ctx context.Context, path string, opts Options) Config {
	defaults := Config{
		BaseURL: b.baseURL,
		Path:    path,
		Timeout: b.timeout,
	}
	return b.build(ctx, ModeImperative, defaults, opts)
}

func (b *Builder) build(ctx context.Context, mode string, defaults Config, opts Options) Config {
	var auth map[string]string
	if opts.Auth {
		tok := ""
		if b.tokens != nil {
			tok = b.tokens.Token()
		}
		if tok == "" {
			b.metrics.ObserveAuthGap()
			b.log.WithContext(ctx).Debug("auth requested without a session token",
				"mode", mode, "path", defaults.Path)
		}
		auth = BearerHeader(tok)
	}

	cfg := merge(defaults, auth, opts)
	b.metrics.ObserveRequestBuilt(mode, cfg.HasAuth())
	return cfg
}
