package httpserver

import (
	"crypto/rand"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/pkg/cmap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID propagates or assigns a request ID and attaches it, with a
// request-scoped logger, to the context.
func RequestID(log logger.Logger) Middleware {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				mu.Lock()
				id = strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
				mu.Unlock()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := logger.WithRequestID(r.Context(), id)
			ctx = logger.WithLogger(ctx, log.WithContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs one line per request. Server errors log at error level
// and client errors at warn.
func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r),
			}
			log := logger.L(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Debug("request completed", attrs...)
			}
		})
	}
}

// Recover turns a panic into a 500 response.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.L(r.Context()).Error("panic recovered", "error", err, "path", r.URL.Path)
					writeError(w, r, http.StatusInternalServerError, domain.ErrInternal, nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits each client IP to rps requests per second with a
// burst of the same size. Idle limiters are dropped after ten minutes.
func RateLimit(rps float64) Middleware {
	type entry struct {
		limiter  *rate.Limiter
		lastSeen atomic.Int64
	}

	clients := cmap.New[string, *entry]()
	var lastSweep atomic.Int64
	lastSweep.Store(time.Now().UnixNano())
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()

			if last := lastSweep.Load(); now.UnixNano()-last > int64(time.Minute) && lastSweep.CompareAndSwap(last, now.UnixNano()) {
				idle := now.Add(-10 * time.Minute).UnixNano()
				clients.DeleteFunc(func(_ string, e *entry) bool { return e.lastSeen.Load() < idle })
			}

			e := clients.GetOrCompute(clientIP(r), func() *entry {
				return &entry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			})
			e.lastSeen.Store(now.UnixNano())

			if !e.limiter.AllowN(now, 1) {
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusTooManyRequests, domain.ErrTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty list allows
// every origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// clientIP prefers proxy headers and falls back to RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Response is the JSON envelope of every gateway response except
// /metrics and passthrough bodies.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, r, status, &Response{Code: "OK", Message: "Success", Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, de *domain.DomainError, details any) {
	msg := de.Message
	if de.Details != "" {
		msg += ": " + de.Details
	}
	w.Header().Set("X-Error-Code", de.Code)
	writeEnvelope(w, r, status, &Response{Code: de.Code, Message: msg, Details: details})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	resp.RequestID = logger.RequestIDFromContext(r.Context())
	resp.Timestamp = time.Now().UnixMilli()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}
