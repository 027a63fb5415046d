// Package cachestore persists fetched catalog records keyed by app id.
//
// The whole mapping lives in memory and is written to a single file inside
// the cache root. Two encodings exist and are chosen once from config:
//
//   - FormatCompact: CBOR, zlib-compressed at the default level, file cache.bin
//   - FormatDebug: indented JSON, uncompressed, file cache.json
//
// Each save encodes the full mapping to a temporary file and renames it over
// the previous one, so readers never observe a partially written cache. Load
// never fails: a missing file yields an empty store, and an unreadable or
// undecodable file is logged as a warning and also yields an empty store.
// Entries never expire.
//
// AcquireLock takes an advisory lock on cache.lock so a single run owns the
// store for its duration.
package cachestore
