package form

import (
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/clock"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// DefaultDelay is the debounce delay.
const DefaultDelay = 300 * time.Millisecond

// FallbackMessage is written when a failure carries no message.
const FallbackMessage = "Invalid value"

// Validation outcomes for metrics.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Option configures a Validator.
type Option func(*Validator)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(v *Validator) {
		v.delay = d
	}
}

// WithClock sets the clock driving the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(v *Validator) {
		v.clock = c
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(v *Validator) {
		v.log = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

type call struct {
	field  string
	data   map[string]any
	schema Picker
	errs   *Errors
}

// Validator debounces single-field validations.
type Validator struct {
	delay   time.Duration
	clock   clock.Clock
	log     logger.Logger
	metrics *metric.Registry

	pending *Debouncer[call]
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		delay: DefaultDelay,
		clock: clock.Real{},
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.pending = NewDebouncer(v.clock, v.delay, v.run)
	return v
}

// ValidateField schedules validation of data[field] against schema,
// replacing any validation still pending. It fails immediately with
// domain.ErrSchemaNotPickable if schema cannot be narrowed to one field,
// and with domain.ErrMissingArgument if errs is nil.
func (v *Validator) ValidateField(field string, data map[string]any, schema Schema, errs *Errors) error {
	if errs == nil {
		return domain.ErrMissingArgument.WithDetails("errors map is nil")
	}
	p, ok := schema.(Picker)
	if !ok {
		return domain.ErrSchemaNotPickable.WithDetails(fmt.Sprintf("%T does not support Pick", schema))
	}
	v.pending.Schedule(call{field: field, data: data, schema: p, errs: errs})
	return nil
}

// Flush runs the pending validation now.
func (v *Validator) Flush() bool {
	return v.pending.Flush()
}

// Cancel drops the pending validation.
func (v *Validator) Cancel() {
	v.pending.Cancel()
}

// Pending reports whether a validation is scheduled.
func (v *Validator) Pending() bool {
	return v.pending.Pending()
}

func (v *Validator) run(c call) {
	sub, err := c.schema.Pick(c.field)
	if err == nil {
		err = sub.Validate(map[string]any{c.field: c.data[c.field]})
	}

	var issues *Issues
	switch {
	case err == nil:
		c.errs.Set(c.field, "")
		v.metrics.ObserveValidation(ResultValid)
	case errors.As(err, &issues):
		msg := issues.First()
		if msg == "" {
			msg = FallbackMessage
		}
		c.errs.Set(c.field, msg)
		v.metrics.ObserveValidation(ResultInvalid)
	default:
		v.log.Error("field validation failed", "field", c.field, "error", err)
		v.metrics.ObserveValidation(ResultError)
	}
}
