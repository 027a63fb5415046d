// Package main hosts the appshelf CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the record cache, the
// store catalog client and the request pacer together, then hands control to
// the internal packages: fetch runs the library pipeline, get resolves
// individual app ids, cache and history inspect local state, check runs
// preflight diagnostics, and config scaffolds the TOML file.
//
// Keep this package lean: behavior belongs in internal/, commands only wire
// and render.
package main
