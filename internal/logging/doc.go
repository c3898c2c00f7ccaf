// Package logging provides the structured logger for the helpcenter client.
//
// It wraps Zap with context-aware methods so session and request IDs flow
// into every entry, adds a trace level below debug for wire-level detail,
// and ships redaction helpers so bearer tokens and passwords never reach
// log output.
package logging
