package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/yndnr/tokgate/internal/cli/connection"
	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/form"
	"github.com/yndnr/tokgate/internal/guard"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/request"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// maxRequestBody caps request bodies read by the gateway.
const maxRequestBody = 1 << 20

// Session is the part of the session store the gateway needs.
type Session interface {
	guard.TokenChecker
	Info() domain.SessionInfo
	Validate(tok string) error
	Login(tok string) error
	Logout()
}

// Deps are the collaborators of the gateway.
type Deps struct {
	Session  Session
	Builder  *request.Builder
	Client   request.Doer
	Paths    guard.Paths
	Metrics  *metric.Registry
	Log      logger.Logger
	Debounce time.Duration

	// RateLimit is per client IP in requests per second; zero disables it.
	RateLimit   float64
	CORSOrigins []string
}

// Gateway serves the session API, guarded pages and the API passthrough.
type Gateway struct {
	deps Deps
	mux  *http.ServeMux
}

// NewGateway creates a Gateway and registers its routes.
func NewGateway(deps Deps) *Gateway {
	if deps.Log == nil {
		deps.Log = logger.Default()
	}
	if deps.Paths == (guard.Paths{}) {
		deps.Paths = guard.DefaultPaths()
	}
	g := &Gateway{deps: deps, mux: http.NewServeMux()}
	g.routes()
	return g
}

// Handler returns the routes wrapped in the middleware chain.
func (g *Gateway) Handler() http.Handler {
	mws := []Middleware{
		Recover(),
		RequestID(g.deps.Log),
		AccessLog(),
		CORS(g.deps.CORSOrigins),
	}
	if g.deps.RateLimit > 0 {
		mws = append(mws, RateLimit(g.deps.RateLimit))
	}
	return Chain(g.mux, mws...)
}

func (g *Gateway) routes() {
	g.mux.HandleFunc("GET /health", g.handleHealth)
	g.mux.HandleFunc("GET /session", g.handleSessionGet)
	g.mux.HandleFunc("POST /session", g.handleSessionCreate)
	g.mux.HandleFunc("DELETE /session", g.handleSessionDelete)
	g.mux.HandleFunc("POST /validate", g.handleValidate)
	g.mux.HandleFunc("/api/{path...}", g.handleAPI)
	if g.deps.Metrics != nil {
		g.mux.Handle("GET /metrics", g.deps.Metrics.Handler())
	}

	pages := http.NewServeMux()
	entry := "GET " + g.deps.Paths.Entry
	if g.deps.Paths.Entry == "/" {
		entry = "GET /{$}"
	}
	pages.HandleFunc(entry, g.handleEntry)
	pages.HandleFunc("GET /articles", g.handleArticles)
	pages.HandleFunc("GET /articles/{slug}", g.handleArticle)
	if home := g.deps.Paths.Home; home != "/articles" && home != g.deps.Paths.Entry {
		pages.HandleFunc("GET "+home, g.handleArticles)
	}
	g.mux.Handle("/", guard.Middleware(g.deps.Session, g.deps.Paths, pages))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Get().Version,
	})
}

func (g *Gateway) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, g.deps.Session.Info())
}

type loginRequest struct {
	Token string `json:"token"`
}

func (g *Gateway) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.WithDetails(err.Error()), nil)
		return
	}
	if err := g.deps.Session.Validate(req.Token); err != nil {
		writeDomainError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := g.deps.Session.Login(req.Token); err != nil {
		writeDomainError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, g.deps.Session.Info())
}

func (g *Gateway) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	g.deps.Session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

type validateRequest struct {
	Schema string         `json:"schema"`
	Field  string         `json:"field"`
	Data   map[string]any `json:"data"`
}

type validateResponse struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// handleValidate runs one field validation. Each request gets its own
// validator so concurrent clients never cancel each other's pending run.
func (g *Gateway) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.WithDetails(err.Error()), nil)
		return
	}
	schema, ok := form.Lookup(req.Schema)
	if !ok {
		writeError(w, r, http.StatusBadRequest,
			domain.ErrInvalidArgument.WithDetails("unknown schema "+req.Schema),
			map[string]any{"schemas": form.SchemaNames()})
		return
	}
	if !slices.Contains(schema.Fields(), req.Field) {
		writeError(w, r, http.StatusBadRequest, domain.ErrUnknownField.WithDetails(req.Field), nil)
		return
	}

	v := form.NewValidator(
		form.WithDelay(g.deps.Debounce),
		form.WithLogger(logger.L(r.Context())),
		form.WithMetrics(g.deps.Metrics),
	)
	errs := form.NewErrors()
	if err := v.ValidateField(req.Field, req.Data, schema, errs); err != nil {
		writeDomainError(w, r, http.StatusInternalServerError, err)
		return
	}
	v.Flush()

	msg, _ := errs.Get(req.Field)
	writeJSON(w, r, http.StatusOK, validateResponse{Field: req.Field, Valid: msg == "", Message: msg})
}

func (g *Gateway) handleEntry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"page":    "entry",
		"session": g.deps.Session.Info(),
	})
}

func (g *Gateway) handleArticles(w http.ResponseWriter, r *http.Request) {
	var articles []domain.Article
	if !g.fetchPage(w, r, "/articles", &articles) {
		return
	}
	writeJSON(w, r, http.StatusOK, articles)
}

func (g *Gateway) handleArticle(w http.ResponseWriter, r *http.Request) {
	var article domain.Article
	if !g.fetchPage(w, r, "/articles/"+r.PathValue("slug"), &article) {
		return
	}
	writeJSON(w, r, http.StatusOK, article)
}

// fetchPage loads page data the way a server-rendered page does: a
// reactive, authenticated fetch that forwards the browser's cookies.
func (g *Gateway) fetchPage(w http.ResponseWriter, r *http.Request, path string, out any) bool {
	ctx := request.WithIncoming(r.Context(), r)
	res := g.deps.Builder.Reactive(ctx, path, request.Options{Auth: true})
	if err := res.Fetch(ctx, g.deps.Client, out); err != nil {
		g.writeUpstreamError(w, r, err)
		return false
	}
	return true
}

// handleAPI relays /api/{path...} to the backend. Reads are reactive
// fetches with forwarded cookies; writes are one-shot calls carrying the
// request body. The token is attached whenever one is held.
func (g *Gateway) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := "/" + r.PathValue("path")
	opts := request.Options{
		Auth:   g.deps.Session.HasToken(),
		Method: r.Method,
		Query:  r.URL.Query(),
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		opts.Headers = map[string]string{"Content-Type": ct}
	}

	var out json.RawMessage
	var err error
	if r.Method == http.MethodGet {
		opts.Method = ""
		ctx := request.WithIncoming(r.Context(), r)
		err = g.deps.Builder.Reactive(ctx, path, opts).Fetch(ctx, g.deps.Client, &out)
	} else {
		body, rerr := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if rerr != nil {
			writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.WithDetails(rerr.Error()), nil)
			return
		}
		if len(bytes.TrimSpace(body)) > 0 {
			opts.Body = json.RawMessage(body)
		}
		cfg := g.deps.Builder.Imperative(r.Context(), path, opts)
		err = g.deps.Client.Do(r.Context(), cfg, &out)
	}
	if err != nil {
		g.writeUpstreamError(w, r, err)
		return
	}

	if len(out) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logger.L(r.Context()).Debug("write passthrough body", "error", err)
	}
}

// writeUpstreamError relays client errors from the backend with their
// status and maps everything else to 502.
func (g *Gateway) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var apiErr *connection.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		status = apiErr.StatusCode
	}
	logger.L(r.Context()).Warn("upstream request failed", "path", r.URL.Path, "status", status, "error", err)
	writeError(w, r, status, domain.ErrUpstream.WithDetails(request.ErrorMessage(err)), nil)
}

func writeDomainError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternal.WithDetails(err.Error())
		status = http.StatusInternalServerError
	}
	writeError(w, r, status, de, nil)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
