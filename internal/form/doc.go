// Package form validates form fields one at a time, debounced.
//
// A Validator collapses bursts of ValidateField calls, for the same or
// different fields, into one validation that uses the arguments of the
// last call. The result lands in a shared Errors map: an empty message
// means the field is valid.
//
// Schemas must support narrowing to a single field (Picker). Passing one
// that does not is a programming error and is returned immediately.
package form
