// Package logging builds the slog loggers used by appshelf.
//
// New and NewFromConfig return a logger backed by either a console handler
// (one header line per record, details indented below) or a JSON handler
// with stable keys. Both are wrapped so that a run id stored with WithRunID
// is attached to records logged through the *Context methods.
//
// Warnings that the user may need to act on go through WarnWithContext,
// which guarantees event_type, error_hint and impact fields.
package logging
