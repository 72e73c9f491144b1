// Package config loads and merges postguard configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (POSTGUARD_PROVIDER, POSTGUARD_MODEL, POSTGUARD_FAIL_ON, etc.)
//  3. Config file ($XDG_CONFIG_HOME/postguard/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged, validated [Config], [Save] to write one
// back, and [SetField] to update a single key.
package config
