// Package errors provides the structured error types shared by the modlink
// packages.
//
// Every error carries a Phase (where in the pipeline it happened) and a Kind
// (what went wrong), so callers can match on taxonomy with errors.Is rather
// than string inspection. Warnings are not modeled here: conditions the
// pipeline merely reports and skips are logged, never returned.
package errors
