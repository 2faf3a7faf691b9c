// Package confloader loads layered configuration with koanf.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Defaults (WithDefaults)
//  2. YAML configuration file (WithConfigFile)
//  3. Environment variables (TOKGATE_SECTION_KEY)
//  4. Overrides, usually command-line flags (WithOverrides)
//
// Keys are dotted paths ("api.base_url"). An environment variable maps
// to a key by dropping the prefix, lowercasing and turning the first
// underscore into a dot, so TOKGATE_SESSION_WATCH_INTERVAL becomes
// session.watch_interval.
//
// Watcher reports changes to a configuration file so callers can reload
// it; the CLI uses this to adjust the log level of a running watch.
package confloader
