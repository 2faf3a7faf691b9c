package connection

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/request"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// RequestIDHeader carries the request ID.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout applies when neither the config nor the client sets one.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s (status %d)", e.Code, e.Message, e.StatusCode)
}

// APIMessage returns the message from the response body.
func (e *APIError) APIMessage() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// HTTPClient executes request.Config values.
type HTTPClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       logger.Logger
	metrics   *metric.Registry

	mu      sync.Mutex
	entropy io.Reader
}

// Option configures the HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTLSConfig sets the TLS configuration of the default transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *HTTPClient) {
		if cfg == nil {
			return
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = cfg
		c.client.Transport = tr
	}
}

// WithRateLimit paces requests to rps per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.log = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// NewHTTPClient creates a client.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: buildinfo.UserAgent(),
		log:       logger.Default(),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends cfg and decodes a JSON response into out (which may be nil).
func (c *HTTPClient) Do(ctx context.Context, cfg request.Config, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, cfg)
	if err != nil {
		return err
	}
	reqID := req.Header.Get(RequestIDHeader)
	log := c.log.WithContext(logger.WithRequestID(ctx, reqID)).With("method", req.Method, "path", req.URL.Path)

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveHTTP(req.Method, 0, elapsed)
		log.Debug("request failed", "error", err, "elapsed", elapsed)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveHTTP(req.Method, resp.StatusCode, elapsed)
	log.Debug("request completed", "status", resp.StatusCode, "elapsed", elapsed)

	return decodeResponse(resp, reqID, out)
}

func (c *HTTPClient) newRequest(ctx context.Context, cfg request.Config) (*http.Request, error) {
	u, err := cfg.URL()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if cfg.Body != nil {
		data, err := encodeBody(cfg.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, c.requestID(ctx))
	}
	return req, nil
}

func (c *HTTPClient) requestID(ctx context.Context) string {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return id
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String())
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return data, nil
}

// decodeResponse maps error statuses to *APIError and decodes success
// bodies into out. An empty success body leaves out untouched.
func decodeResponse(resp *http.Response, reqID string, out any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: reqID}
		var body struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Code = body.Code
			apiErr.Message = body.Message
			if apiErr.Message == "" {
				apiErr.Message = body.Error
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
