// Package catalog talks to the store's appdetails endpoint.
//
// Client.AppDetails issues one GET per app id, decodes the
// `{"<id>": {"success": bool, "data": {...}}}` envelope, and validates it:
// a body that does not match the envelope is a *ResponseFormatError carrying
// the raw body, and the remaining failure shapes map to ErrMissingEntry,
// ErrRemoteFailure, and ErrMissingPayload. The client performs exactly one
// attempt per call; pacing and caching live in the fetch package.
//
// Record is the payload persisted by the cache store. Only ID is interpreted
// by the fetch pipeline; the remaining fields are carried for display.
package catalog
