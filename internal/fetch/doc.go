// Package fetch resolves app ids to catalog records through the local cache.
//
// Resolver treats the cache store as authoritative. A cached id is answered
// from memory without pacing or network access. A miss waits on the rate
// limiter, issues one catalog request, inserts the record and persists the
// store. Failed requests are never cached and are not retried.
package fetch
