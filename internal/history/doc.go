// Package history keeps a SQLite log of fetch runs.
//
// Each pipeline report is stored as one runs row plus one outcomes row per
// resolved id, so past runs can be listed and their failures inspected.
// The database lives next to the record cache as history.db.
package history
