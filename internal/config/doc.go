// Package config loads, normalizes, and validates docket configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment-style overrides
// the original tooling exposed (provider order, cache TTL, retry attempts
// and delay, service API keys). Always obtain settings through this package
// so downstream code receives sanitized paths and validated values.
package config
