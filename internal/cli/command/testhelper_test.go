package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/tokgate/internal/storage/memory"
)

// mockServer is a fake backend API that records requests.
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		h, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for an exact path.
func (m *mockServer) handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

func (m *mockServer) last(t *testing.T) recordedRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no request reached the API")
	}
	return m.requests[len(m.requests)-1]
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// harness runs the CLI against a mock API with a memory session store
// shared between runs, like one user invoking tokgate repeatedly.
type harness struct {
	api     *mockServer
	space   *memory.Space
	dir     string
	cfgPath string
}

// newHarness writes a config file; extraConfig lines are appended to its
// session section.
func newHarness(t *testing.T, extraConfig ...string) *harness {
	t.Helper()
	h := &harness{
		api:   newMockServer(t),
		space: memory.NewSpace(),
		dir:   t.TempDir(),
	}
	h.cfgPath = filepath.Join(h.dir, "config.yaml")

	cfg := strings.Join(append([]string{
		"api:",
		"  base_url: " + h.api.URL,
		"log:",
		"  level: error",
		"session:",
		"  store: memory",
	}, extraConfig...), "\n") + "\n"
	if err := os.WriteFile(h.cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return h
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (h *harness) run(t *testing.T, args ...string) result {
	t.Helper()
	return h.runWithInput(t, context.Background(), "", args...)
}

func (h *harness) runWithInput(t *testing.T, ctx context.Context, input string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App(WithOutput(&stdout, &stderr), WithMemorySpace(h.space))
	app.Reader = strings.NewReader(input)

	full := append([]string{"tokgate", "--config", h.cfgPath}, args...)
	err := app.RunContext(ctx, full)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	res := h.run(t, args...)
	if res.err != nil {
		t.Fatalf("tokgate %s: %v\nstderr: %s", strings.Join(args, " "), res.err, res.stderr)
	}
	return res.stdout
}
