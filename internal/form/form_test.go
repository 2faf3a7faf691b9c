package form

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

func loginSchema() *Object {
	return NewObject().
		Field("email", String().Required("Email is required").Email("Email is invalid")).
		Field("password", String().Required("Password is required").MinLen(8, ""))
}

// countingSchema counts every Validate on the picked sub-schema and
// records the values it saw.
type countingSchema struct {
	inner *Object

	mu     sync.Mutex
	parses int
	seen   []any
}

func (c *countingSchema) Validate(value any) error {
	return c.inner.Validate(value)
}

func (c *countingSchema) Pick(fields ...string) (Schema, error) {
	sub, err := c.inner.Pick(fields...)
	if err != nil {
		return nil, err
	}
	return schemaFunc(func(v any) error {
		c.mu.Lock()
		c.parses++
		c.seen = append(c.seen, v.(map[string]any)[fields[0]])
		c.mu.Unlock()
		return sub.Validate(v)
	}), nil
}

type schemaFunc func(any) error

func (f schemaFunc) Validate(v any) error { return f(v) }

func newValidator(t *testing.T, opts ...Option) (*Validator, *clock.Fake, *metric.Registry) {
	t.Helper()
	fc := clock.NewFake(time.Unix(0, 0))
	m := metric.NewRegistry()
	base := []Option{WithClock(fc), WithLogger(logger.Nop()), WithMetrics(m)}
	return NewValidator(append(base, opts...)...), fc, m
}

func TestValidator_DebounceCollapse(t *testing.T) {
	v, fc, _ := newValidator(t)
	schema := &countingSchema{inner: loginSchema()}
	errs := NewErrors()

	for _, email := range []string{"a", "ab@", "ab@example.com"} {
		if err := v.ValidateField("email", map[string]any{"email": email}, schema, errs); err != nil {
			t.Fatalf("ValidateField() error = %v", err)
		}
		fc.Advance(100 * time.Millisecond)
	}
	if schema.parses != 0 {
		t.Fatalf("parses before quiet period = %d, want 0", schema.parses)
	}

	fc.Advance(DefaultDelay)

	if schema.parses != 1 {
		t.Errorf("parses = %d, want 1", schema.parses)
	}
	if len(schema.seen) != 1 || schema.seen[0] != "ab@example.com" {
		t.Errorf("seen = %v, want [ab@example.com]", schema.seen)
	}
	if msg, _ := errs.Get("email"); msg != "" {
		t.Errorf("email error = %q, want empty", msg)
	}
}

func TestValidator_CollapsesAcrossFields(t *testing.T) {
	v, fc, _ := newValidator(t)
	errs := NewErrors()
	data := map[string]any{"email": "", "password": ""}

	v.ValidateField("email", data, loginSchema(), errs)
	v.ValidateField("password", data, loginSchema(), errs)
	fc.Advance(DefaultDelay)

	if _, ok := errs.Get("email"); ok {
		t.Error("the earlier email call should have been dropped")
	}
	if msg, _ := errs.Get("password"); msg != "Password is required" {
		t.Errorf("password error = %q", msg)
	}
}

func TestValidator_RoundTrip(t *testing.T) {
	v, fc, m := newValidator(t)
	errs := NewErrors()
	errs.Set("password", "Password is required")

	v.ValidateField("email", map[string]any{"email": ""}, loginSchema(), errs)
	fc.Advance(DefaultDelay)

	if msg, _ := errs.Get("email"); msg != "Email is required" {
		t.Fatalf("email error = %q, want %q", msg, "Email is required")
	}

	v.ValidateField("email", map[string]any{"email": "user@example.com"}, loginSchema(), errs)
	fc.Advance(DefaultDelay)

	if msg, ok := errs.Get("email"); !ok || msg != "" {
		t.Errorf("email error = %q (present %v), want cleared", msg, ok)
	}
	if msg, _ := errs.Get("password"); msg != "Password is required" {
		t.Errorf("password error = %q, should be untouched", msg)
	}
	if got := testutil.ToFloat64(m.Validations.WithLabelValues(ResultInvalid)); got != 1 {
		t.Errorf("invalid validations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Validations.WithLabelValues(ResultValid)); got != 1 {
		t.Errorf("valid validations = %v, want 1", got)
	}
}

func TestValidator_FirstIssueOnly(t *testing.T) {
	v, fc, _ := newValidator(t)
	schema := NewObject().Field("code", String().MinLen(4, "too short").Pattern(regexp.MustCompile(`^\d+$`), "digits only"))
	errs := NewErrors()

	v.ValidateField("code", map[string]any{"code": "ab"}, schema, errs)
	fc.Advance(DefaultDelay)

	if msg, _ := errs.Get("code"); msg != "too short" {
		t.Errorf("code error = %q, want first issue", msg)
	}
}

type notPickable struct{}

func (notPickable) Validate(any) error { return nil }

func TestValidator_SchemaNotPickable(t *testing.T) {
	v, fc, _ := newValidator(t)
	errs := NewErrors()

	err := v.ValidateField("email", map[string]any{}, notPickable{}, errs)
	if !errors.Is(err, domain.ErrSchemaNotPickable) {
		t.Fatalf("error = %v, want ErrSchemaNotPickable", err)
	}
	if v.Pending() {
		t.Error("nothing should be scheduled")
	}
	fc.Advance(time.Second)
	if len(errs.Fields()) != 0 {
		t.Errorf("errors = %v, want untouched", errs.Snapshot())
	}
}

func TestValidator_NilErrorsRejected(t *testing.T) {
	v, fc, _ := newValidator(t)
	errs := NewErrors()
	data := map[string]any{"email": "bad"}

	if err := v.ValidateField("email", data, loginSchema(), errs); err != nil {
		t.Fatalf("ValidateField() error = %v", err)
	}
	err := v.ValidateField("email", data, loginSchema(), nil)
	if !errors.Is(err, domain.ErrMissingArgument) {
		t.Fatalf("error = %v, want ErrMissingArgument", err)
	}
	if !v.Pending() {
		t.Fatal("a rejected call should not replace the pending one")
	}

	fc.Advance(time.Second)
	if msg, _ := errs.Get("email"); msg != "Email is invalid" {
		t.Errorf("email = %q, want Email is invalid", msg)
	}
}

func TestValidator_UnexpectedFailureLeavesErrors(t *testing.T) {
	var buf bytes.Buffer
	log, _ := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})
	v, fc, m := newValidator(t, WithLogger(log))
	errs := NewErrors()
	errs.Set("email", "previous")

	v.ValidateField("email", map[string]any{"email": 42}, loginSchema(), errs)
	fc.Advance(DefaultDelay)

	if msg, _ := errs.Get("email"); msg != "previous" {
		t.Errorf("email error = %q, want untouched", msg)
	}
	if !strings.Contains(buf.String(), "field validation failed") {
		t.Errorf("expected diagnostic log, got %q", buf.String())
	}
	if got := testutil.ToFloat64(m.Validations.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("error validations = %v, want 1", got)
	}
}

func TestValidator_UnknownFieldIsDiagnostic(t *testing.T) {
	v, fc, _ := newValidator(t)
	errs := NewErrors()

	v.ValidateField("nickname", map[string]any{"nickname": "x"}, loginSchema(), errs)
	fc.Advance(DefaultDelay)

	if _, ok := errs.Get("nickname"); ok {
		t.Error("unknown field should not be written")
	}
}

func TestValidator_FallbackMessage(t *testing.T) {
	v, fc, _ := newValidator(t)
	schema := NewObject().Field("x", schemaFunc(func(any) error {
		return &Issues{List: []Issue{{Message: ""}}}
	}))
	errs := NewErrors()

	v.ValidateField("x", map[string]any{"x": "1"}, schema, errs)
	fc.Advance(DefaultDelay)

	if msg, _ := errs.Get("x"); msg != FallbackMessage {
		t.Errorf("x error = %q, want %q", msg, FallbackMessage)
	}
}

func TestValidator_FlushAndCancel(t *testing.T) {
	v, fc, _ := newValidator(t)
	errs := NewErrors()

	v.ValidateField("email", map[string]any{"email": ""}, loginSchema(), errs)
	if !v.Flush() {
		t.Fatal("Flush() should run the pending call")
	}
	if msg, _ := errs.Get("email"); msg == "" {
		t.Error("Flush should validate immediately")
	}
	if v.Flush() {
		t.Error("second Flush() should find nothing pending")
	}

	v.ValidateField("password", map[string]any{"password": ""}, loginSchema(), errs)
	v.Cancel()
	fc.Advance(time.Second)
	if _, ok := errs.Get("password"); ok {
		t.Error("cancelled validation should not run")
	}
}

func TestDebouncer(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	var got []int
	d := NewDebouncer(fc, time.Second, func(n int) { got = append(got, n) })

	d.Schedule(1)
	fc.Advance(500 * time.Millisecond)
	d.Schedule(2)
	fc.Advance(999 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}
	if !d.Pending() {
		t.Error("Pending() should be true")
	}

	fc.Advance(time.Millisecond)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("calls = %v, want [2]", got)
	}
	if d.Pending() {
		t.Error("Pending() should be false after firing")
	}
	if fc.Pending() != 0 {
		t.Errorf("leaked timers = %d", fc.Pending())
	}
}

func TestField_Rules(t *testing.T) {
	tests := []struct {
		name    string
		field   *Field
		value   any
		wantMsg string
	}{
		{"required empty", String().Required(""), "", "Required"},
		{"required nil", String().Required("need it"), nil, "need it"},
		{"optional empty skips rules", String().MinLen(3, ""), "", ""},
		{"min len", String().MinLen(3, ""), "ab", "Must be at least 3 characters"},
		{"min len counts runes", String().MinLen(3, ""), "äöü", ""},
		{"max len", String().MaxLen(2, "short please"), "abc", "short please"},
		{"email ok", String().Email(""), "a@b.co", ""},
		{"email bad", String().Email(""), "a@b", "Invalid email"},
		{"email no at", String().Email("not an email"), "user.example.com", "not an email"},
		{"email no host", String().Email(""), "someone@", "Invalid email"},
		{"email space in host", String().Email(""), "user@exa mple.com", "Invalid email"},
		{"required with rules", String().Required("need it").Email(""), "", "need it"},
		{"max len counts runes", String().MaxLen(3, ""), "äöü", ""},
		{"pattern", String().Pattern(regexp.MustCompile(`^[a-z]+$`), ""), "A1", "Invalid format"},
		{"one of ok", String().OneOf([]string{"draft", "published"}, ""), "draft", ""},
		{"one of bad", String().OneOf([]string{"draft", "published"}, ""), "x", "Must be one of: draft, published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate(tt.value)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var issues *Issues
			if !errors.As(err, &issues) {
				t.Fatalf("Validate() error = %v, want *Issues", err)
			}
			if issues.First() != tt.wantMsg {
				t.Errorf("First() = %q, want %q", issues.First(), tt.wantMsg)
			}
		})
	}
}

func TestField_CollectsEveryFailure(t *testing.T) {
	f := String().MinLen(10, "too short").Pattern(regexp.MustCompile(`^[a-z]+$`), "lowercase only").Email("")

	err := f.Validate("ABC")
	var issues *Issues
	if !errors.As(err, &issues) {
		t.Fatalf("Validate() error = %v, want *Issues", err)
	}
	want := []string{"too short", "lowercase only", "Invalid email"}
	if len(issues.List) != len(want) {
		t.Fatalf("issues = %+v, want %d", issues.List, len(want))
	}
	for i, msg := range want {
		if issues.List[i].Message != msg {
			t.Errorf("issue %d = %q, want %q", i, issues.List[i].Message, msg)
		}
	}
}

func TestField_NonStringIsNotAnIssue(t *testing.T) {
	err := String().Required("").Validate(42)
	if err == nil {
		t.Fatal("Validate(42) error = nil")
	}
	var issues *Issues
	if errors.As(err, &issues) {
		t.Errorf("Validate(42) error = %v, want a plain error", err)
	}
}

func TestObject_ValidateAndPick(t *testing.T) {
	s := loginSchema()

	err := s.Validate(map[string]string{"email": "bad"})
	var issues *Issues
	if !errors.As(err, &issues) {
		t.Fatalf("Validate() error = %v, want *Issues", err)
	}
	if len(issues.List) != 2 || issues.List[0].Path != "email" || issues.List[1].Path != "password" {
		t.Errorf("issues = %+v", issues.List)
	}

	sub, err := s.Pick("email")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if err := sub.Validate(map[string]any{"email": "a@b.co"}); err != nil {
		t.Errorf("picked Validate() error = %v, want nil", err)
	}

	if _, err := s.Pick("missing"); !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("Pick(missing) error = %v, want ErrUnknownField", err)
	}
	if err := s.Validate("nope"); err == nil {
		t.Error("Validate(non-object) should fail")
	}
}

func TestErrors_Concurrent(t *testing.T) {
	errs := NewErrors()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs.Set(string(rune('a'+i)), "x")
			errs.Snapshot()
		}(i)
	}
	wg.Wait()

	if len(errs.Fields()) != 10 {
		t.Errorf("fields = %v", errs.Fields())
	}
	if errs.Valid() {
		t.Error("Valid() should be false")
	}
}
