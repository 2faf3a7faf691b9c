package request

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options are caller overrides. Zero values leave the default in place.
type Options struct {
	// Auth asks for the session token to be injected.
	Auth bool

	BaseURL string
	Method  string
	Headers map[string]string
	Query   url.Values
	Body    any

	// Watch overrides the reactive re-fetch flag (default false).
	Watch *bool

	Timeout time.Duration

	// Key identifies a reactive resource. Defaults to "METHOD URL".
	Key string
}

// Config is a fully merged request description.
type Config struct {
	Method  string
	BaseURL string
	Path    string
	Headers map[string]string
	Query   url.Values
	Body    any
	Watch   bool
	Timeout time.Duration
}

// URL joins BaseURL, Path and Query.
func (c Config) URL() (string, error) {
	raw := c.Path
	if c.BaseURL != "" && !isAbsolute(c.Path) {
		raw = strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.Path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if len(c.Query) > 0 {
		q := u.Query()
		for k, vs := range c.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// HasAuth reports whether an Authorization header is set.
func (c Config) HasAuth() bool {
	_, ok := c.Headers[AuthorizationHeader]
	return ok
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// merge applies caller options over defaults. Scalars are shallow-merged
// (non-zero wins); headers go through MergeHeaders.
func merge(defaults Config, auth map[string]string, opts Options) Config {
	cfg := defaults
	cfg.Headers = MergeHeaders(defaults.Headers, auth, opts.Headers)

	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Method != "" {
		cfg.Method = strings.ToUpper(opts.Method)
	}
	if opts.Query != nil {
		cfg.Query = opts.Query
	}
	if opts.Body != nil {
		cfg.Body = opts.Body
	}
	if opts.Watch != nil {
		cfg.Watch = *opts.Watch
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	return cfg
}
