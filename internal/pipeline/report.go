package pipeline

import (
	"context"
	"errors"
	"net"
	"time"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
)

// Outcome is the result of resolving one id.
type Outcome struct {
	ID     uint64
	Cached bool
	Name   string
	Err    error
}

// OK reports whether a record is available for the id. A record that was
// fetched but could not be persisted still counts.
func (o Outcome) OK() bool {
	return o.Err == nil || errors.Is(o.Err, cachestore.ErrPersistence)
}

// Report summarizes a run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	// Cancelled is set when the run stopped before the sequence was drained.
	Cancelled bool
}

// Stats are aggregate counts over a report.
type Stats struct {
	Total    int
	Cached   int
	Fetched  int
	Failed   int
	Unsaved  int
	Duration time.Duration
}

// Stats aggregates the outcomes.
func (r Report) Stats() Stats {
	s := Stats{Total: len(r.Outcomes), Duration: r.FinishedAt.Sub(r.StartedAt)}
	for _, o := range r.Outcomes {
		switch {
		case o.Cached:
			s.Cached++
		case o.Err == nil:
			s.Fetched++
		case errors.Is(o.Err, cachestore.ErrPersistence):
			s.Fetched++
			s.Unsaved++
		default:
			s.Failed++
		}
	}
	return s
}

// Failures returns the outcomes that produced no record.
func (r Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Failure categories reported by Classify.
const (
	KindNone           = ""
	KindPersistence    = "persistence"
	KindResponseFormat = "response_format"
	KindMissingEntry   = "missing_entry"
	KindRemoteFailure  = "remote_failure"
	KindMissingPayload = "missing_payload"
	KindCancelled      = "cancelled"
	KindTimeout        = "timeout"
	KindTransport      = "transport"
)

// Classify maps a resolution error onto a stable category name.
func Classify(err error) string {
	var formatErr *catalog.ResponseFormatError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, cachestore.ErrPersistence):
		return KindPersistence
	case errors.As(err, &formatErr):
		return KindResponseFormat
	case errors.Is(err, catalog.ErrMissingEntry):
		return KindMissingEntry
	case errors.Is(err, catalog.ErrRemoteFailure):
		return KindRemoteFailure
	case errors.Is(err, catalog.ErrMissingPayload):
		return KindMissingPayload
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return KindTimeout
	default:
		return KindTransport
	}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
