// Package repl provides the interactive mode of the tokgate CLI.
//
// Every line is either a builtin or a CLI command line handed to an
// Executor. The REPL keeps one session for its whole lifetime and tracks
// a current location through the route guard, so signing out moves the
// prompt back to the entry path.
//
// Builtins:
//
//	go PATH       navigate (the guard may redirect)
//	where         show the current location and where it came from
//	history       list previous lines
//	complete TEXT list commands starting with TEXT
//	help, exit, quit
package repl
