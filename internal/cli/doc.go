// Package cli wires together the Cobra command tree for the postguard binary.
//
// It defines the root command and all subcommands (check, watch, config,
// settings, models, version), binds flags, reads configuration, drives the
// annotation pipeline, and returns deterministic exit codes for scripting.
package cli
