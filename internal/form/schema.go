package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// Schema validates a value.
type Schema interface {
	Validate(value any) error
}

// Picker is a Schema that can be narrowed to a subset of its fields.
type Picker interface {
	Schema
	Pick(fields ...string) (Schema, error)
}

// Issue is one validation failure.
type Issue struct {
	Path    string
	Message string
}

// Issues is the structured failure returned by schemas, in rule order.
type Issues struct {
	List []Issue
}

func (e *Issues) Error() string {
	parts := make([]string, 0, len(e.List))
	for _, iss := range e.List {
		if iss.Path == "" {
			parts = append(parts, iss.Message)
			continue
		}
		parts = append(parts, iss.Path+": "+iss.Message)
	}
	return strings.Join(parts, "; ")
}

// First returns the first message, or "" when empty.
func (e *Issues) First() string {
	if len(e.List) == 0 {
		return ""
	}
	return e.List[0].Message
}

// Field is a string field schema. Rules run in the order they were added
// and every failing rule yields an issue. An empty value fails only
// Required; the other rules skip it.
type Field struct {
	required *validation.RequiredRule
	rules    []validation.Rule
}

// String starts a field schema.
func String() *Field {
	return &Field{}
}

// Required rejects empty values.
func (f *Field) Required(msg string) *Field {
	r := validation.Required.Error(orDefault(msg, "Required"))
	f.required = &r
	return f
}

// MinLen rejects values shorter than n characters.
func (f *Field) MinLen(n int, msg string) *Field {
	return f.add(validation.RuneLength(n, 0).
		Error(orDefault(msg, fmt.Sprintf("Must be at least %d characters", n))))
}

// MaxLen rejects values longer than n characters.
func (f *Field) MaxLen(n int, msg string) *Field {
	return f.add(validation.RuneLength(0, n).
		Error(orDefault(msg, fmt.Sprintf("Must be at most %d characters", n))))
}

// Email rejects values that are not an email address. No DNS lookup is
// made.
func (f *Field) Email(msg string) *Field {
	return f.add(is.EmailFormat.Error(orDefault(msg, "Invalid email")))
}

// Pattern rejects values not matching re.
func (f *Field) Pattern(re *regexp.Regexp, msg string) *Field {
	return f.add(validation.Match(re).Error(orDefault(msg, "Invalid format")))
}

// OneOf rejects values outside allowed.
func (f *Field) OneOf(allowed []string, msg string) *Field {
	elems := make([]any, len(allowed))
	for i, a := range allowed {
		elems[i] = a
	}
	return f.add(validation.In(elems...).
		Error(orDefault(msg, "Must be one of: "+strings.Join(allowed, ", "))))
}

func (f *Field) add(r validation.Rule) *Field {
	f.rules = append(f.rules, r)
	return f
}

// Validate checks value, which must be a string or nil.
func (f *Field) Validate(value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}

	if s == "" {
		if f.required == nil {
			return nil
		}
		msg, err := ruleMessage(f.required.Validate(s))
		if err != nil || msg == "" {
			return err
		}
		return &Issues{List: []Issue{{Message: msg}}}
	}

	var issues []Issue
	for _, r := range f.rules {
		msg, err := ruleMessage(r.Validate(s))
		if err != nil {
			return err
		}
		if msg != "" {
			issues = append(issues, Issue{Message: msg})
		}
	}
	if len(issues) > 0 {
		return &Issues{List: issues}
	}
	return nil
}

// ruleMessage returns the message of a failed rule. Errors that are not
// validation failures are returned as is.
func ruleMessage(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	var ve validation.Error
	if errors.As(err, &ve) {
		return ve.Error(), nil
	}
	return "", err
}

func asString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %T", value)
	}
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}

// Object is a schema over named fields. It implements Picker.
type Object struct {
	order  []string
	fields map[string]Schema
}

// NewObject creates an empty object schema.
func NewObject() *Object {
	return &Object{fields: make(map[string]Schema)}
}

// Field adds or replaces a field.
func (o *Object) Field(name string, s Schema) *Object {
	if _, ok := o.fields[name]; !ok {
		o.order = append(o.order, name)
	}
	o.fields[name] = s
	return o
}

// Fields returns the field names in declaration order.
func (o *Object) Fields() []string {
	return append([]string(nil), o.order...)
}

// Pick returns an object schema restricted to fields.
func (o *Object) Pick(fields ...string) (Schema, error) {
	picked := NewObject()
	for _, name := range fields {
		s, ok := o.fields[name]
		if !ok {
			return nil, domain.ErrUnknownField.WithDetails(name)
		}
		picked.Field(name, s)
	}
	return picked, nil
}

// Validate checks a map[string]any or map[string]string value. Issues
// are prefixed with the field name.
func (o *Object) Validate(value any) error {
	var get func(string) any
	switch v := value.(type) {
	case map[string]any:
		get = func(k string) any { return v[k] }
	case map[string]string:
		get = func(k string) any {
			s, ok := v[k]
			if !ok {
				return nil
			}
			return s
		}
	default:
		return fmt.Errorf("expected object, got %T", value)
	}

	var all []Issue
	for _, name := range o.order {
		err := o.fields[name].Validate(get(name))
		if err == nil {
			continue
		}
		nested, ok := err.(*Issues)
		if !ok {
			return fmt.Errorf("field %s: %w", name, err)
		}
		for _, iss := range nested.List {
			path := name
			if iss.Path != "" {
				path = name + "." + iss.Path
			}
			all = append(all, Issue{Path: path, Message: iss.Message})
		}
	}
	if len(all) > 0 {
		return &Issues{List: all}
	}
	return nil
}
