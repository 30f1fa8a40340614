// Package logging provides the slog front-end shared by the CLI and the
// processing core: console and JSON handlers, attribute helpers, and
// context-derived run/document fields.
package logging
