// Package config handles configuration loading and merging for tally.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--format, --fail-on, --update, etc.)
//  2. Environment variables bound to those flags (TALLY_FORMAT, TALLY_FAIL_ON, ...)
//  3. YAML config file (.tally.yaml in local directory or ~/.config/tally/.tally.yaml)
//  4. Hardcoded defaults
//
// The YAML file is validated against an embedded JSON schema before it is
// merged, so unknown keys and out-of-range values are rejected rather than
// ignored.
package config
