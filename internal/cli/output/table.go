package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats data as aligned columns.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders a *Table, a slice of structs or maps, a map, or a
// struct. Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}

	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any, wide bool) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v, wide)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return structToTable(v, wide), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

type column struct {
	name  string
	index int
}

// columns lists the visible fields of a struct type.
func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, wideOnly, skip := parseTag(field)
		if skip || (wideOnly && !wide) {
			continue
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

func parseTag(field reflect.StructField) (name string, wideOnly, skip bool) {
	name = field.Name
	if jsonTag := field.Tag.Get("json"); jsonTag != "" {
		if n, _, _ := strings.Cut(jsonTag, ","); n == "-" {
			skip = true
		} else if n != "" {
			name = n
		}
	}

	tag, ok := field.Tag.Lookup("table")
	if !ok {
		return name, false, skip
	}
	if tag == "-" {
		return name, false, true
	}
	n, opts, _ := strings.Cut(tag, ",")
	if n != "" {
		name = n
	}
	return name, opts == "wide", false
}

func sliceToTable(v reflect.Value, wide bool) (*Table, error) {
	if v.Len() == 0 {
		return &Table{}, nil
	}

	first := indirect(v.Index(0))
	table := &Table{}

	switch first.Kind() {
	case reflect.Struct:
		cols := columns(first.Type(), wide)
		for _, c := range cols {
			table.Headers = append(table.Headers, strings.ToUpper(toSnakeCase(c.name)))
		}
		for i := 0; i < v.Len(); i++ {
			elem := indirect(v.Index(i))
			row := make([]string, 0, len(cols))
			for _, c := range cols {
				row = append(row, formatValue(elem.Field(c.index)))
			}
			table.Rows = append(table.Rows, row)
		}
	case reflect.Map:
		table.Headers = []string{"KEY", "VALUE"}
		for i := 0; i < v.Len(); i++ {
			table.Rows = append(table.Rows, mapToTable(indirect(v.Index(i))).Rows...)
		}
	default:
		table.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			table.Rows = append(table.Rows, []string{formatValue(v.Index(i))})
		}
	}

	return table, nil
}

// mapToTable renders a map as key/value rows sorted by key.
func mapToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"KEY", "VALUE"}}

	iter := v.MapRange()
	for iter.Next() {
		table.Rows = append(table.Rows, []string{formatValue(iter.Key()), formatValue(iter.Value())})
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })

	return table
}

func structToTable(v reflect.Value, wide bool) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columns(v.Type(), wide) {
		table.Rows = append(table.Rows, []string{c.name, formatValue(v.Field(c.index))})
	}
	return table
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	v = indirect(v)
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return ""
	}

	switch v.Type() {
	case timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339)
	case durationType:
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.String:
		if s := v.String(); s != "" {
			return s
		}
		return "-"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := range parts {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, ",")
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// toSnakeCase converts CamelCase to Snake_Case; callers upper-case it.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table, optionally without headers.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
