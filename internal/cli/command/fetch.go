package command

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/connection"
	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/request"
)

// FetchCommand sends one request to the API.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Send a request to the API and print the JSON response",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "auth",
				Aliases: []string{"a"},
				Usage:   "Attach the session token",
			},
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method",
				Value:   http.MethodGet,
			},
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "Request header as KEY=VALUE or \"Key: Value\"",
			},
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query parameter as KEY=VALUE",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON request body; @FILE reads a file, - reads stdin",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout (overrides api.timeout)",
			},
		},
		Action: fetch,
	}
}

// ArticlesCommand lists articles, or shows one by slug.
func ArticlesCommand() *cli.Command {
	return &cli.Command{
		Name:      "articles",
		Usage:     "List articles, or show one article",
		ArgsUsage: "[SLUG]",
		Action:    articles,
	}
}

func fetch(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return domain.ErrMissingArgument.WithDetails("PATH is required")
	}

	headers, err := parsePairs(c.StringSlice("header"), true)
	if err != nil {
		return err
	}
	query, err := parsePairs(c.StringSlice("query"), false)
	if err != nil {
		return err
	}
	opts := request.Options{
		Auth:    c.Bool("auth"),
		Method:  c.String("method"),
		Headers: headers,
		Timeout: c.Duration("timeout"),
	}
	if len(query) > 0 {
		opts.Query = url.Values{}
		for k, v := range query {
			opts.Query.Set(k, v)
		}
	}
	if data := c.String("data"); data != "" {
		body, err := readBody(c.App.Reader, data)
		if err != nil {
			return err
		}
		if !json.Valid(body) {
			return domain.ErrInvalidArgument.WithDetails("--data is not valid JSON")
		}
		opts.Body = json.RawMessage(body)
	}

	ctx := commandContext(c)
	var out any
	if strings.EqualFold(opts.Method, http.MethodGet) && opts.Body == nil {
		err = rt.Builder.Reactive(ctx, path, opts).Fetch(ctx, rt.Client, &out)
	} else {
		err = rt.Client.Do(ctx, rt.Builder.Imperative(ctx, path, opts), &out)
	}
	if err != nil {
		return fetchError(rt, opts.Auth, err)
	}
	if out == nil {
		return nil
	}
	return render(c, rt, out)
}

func articles(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	ctx := commandContext(c)
	opts := request.Options{Auth: true}

	if slug := c.Args().First(); slug != "" {
		var article domain.Article
		res := rt.Builder.Reactive(ctx, "/articles/"+url.PathEscape(slug), opts)
		if err := res.Fetch(ctx, rt.Client, &article); err != nil {
			return fetchError(rt, true, err)
		}
		return render(c, rt, article)
	}

	var list []domain.Article
	if err := rt.Builder.Reactive(ctx, "/articles", opts).Fetch(ctx, rt.Client, &list); err != nil {
		return fetchError(rt, true, err)
	}
	if len(list) == 0 {
		fmt.Fprintln(c.App.Writer, "No articles")
		return nil
	}
	return render(c, rt, list)
}

// fetchError turns a transport error into the message the user sees.
func fetchError(rt *Runtime, auth bool, err error) error {
	msg := request.ErrorMessage(err)
	if connection.IsUnauthorized(err) {
		if auth && !rt.Session.HasToken() {
			return domain.ErrNotAuthenticated.WithDetails("run `tokgate login` first")
		}
		return domain.ErrNotAuthenticated.WithDetails(msg).WithCause(err)
	}
	return domain.ErrUpstream.WithDetails(msg).WithCause(err)
}

// parsePairs parses KEY=VALUE items. Headers also accept "Key: Value".
func parsePairs(items []string, header bool) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if header {
			if hk, hv, hok := strings.Cut(item, ":"); hok && (!ok || len(hk) < len(k)) {
				k, v, ok = hk, hv, true
			}
		}
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("%q is not KEY=VALUE", item))
		}
		if header {
			k = http.CanonicalHeaderKey(k)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func readBody(stdin io.Reader, data string) ([]byte, error) {
	switch {
	case data == "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	default:
		return []byte(data), nil
	}
}
