// Package output renders command results as a table, JSON or YAML.
//
// Table output reads struct fields in declaration order. A field's
// column name comes from its `table` tag, then its `json` tag, then the
// field name; `table:"-"` hides a field and `table:",wide"` shows it
// only in wide mode.
package output
