// Package preflight provides readiness checks for the filesystem paths and
// remote endpoint that appshelf depends on.
//
// The CLI "appshelf check" command runs RunAll and prints each Result. The
// fetch command runs the cache directory check before taking the cache lock
// so permission problems surface before any request is made.
package preflight
