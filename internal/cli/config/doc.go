// Package config defines the tokgate CLI configuration.
//
// The configuration file lives at ~/.tokgate/config.yaml by default and is
// layered with TOKGATE_* environment variables and command-line flags
// through confloader.
package config
