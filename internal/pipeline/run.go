package pipeline

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"appshelf/internal/catalog"
	"appshelf/internal/logging"
)

// Resolver answers one id at a time.
type Resolver interface {
	Resolve(ctx context.Context, id uint64) (catalog.Record, error)
	Cached(id uint64) bool
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	logger   *slog.Logger
	now      func() time.Time
	runID    string
	observer func(Outcome)
}

// WithLogger sets the logger for per-id events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *runner) {
		r.runID = id
	}
}

// WithObserver is called after each id is resolved.
func WithObserver(fn func(Outcome)) Option {
	return func(r *runner) {
		r.observer = fn
	}
}

// Run resolves each id from ids sequentially. Per-id failures are logged
// and recorded; they never stop the run. When ctx ends, Run stops pulling
// ids and returns the partial report with the context error.
func Run(ctx context.Context, ids iter.Seq[uint64], resolver Resolver, opts ...Option) (Report, error) {
	r := runner{
		logger: logging.NewComponentLogger(nil, "pipeline"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	if resolver == nil {
		return Report{RunID: r.runID}, errors.New("pipeline: resolver required")
	}

	ctx = logging.WithRunID(ctx, r.runID)
	logger := logging.WithContext(ctx, r.logger)

	report := Report{RunID: r.runID, StartedAt: r.now()}
	logger.Info("fetch run started", logging.String(logging.FieldEventType, "run_started"))

	var runErr error
	for id := range ids {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			runErr = err
			break
		}

		outcome := Outcome{ID: id, Cached: resolver.Cached(id)}
		record, err := resolver.Resolve(ctx, id)
		if err != nil && errors.Is(err, ctx.Err()) {
			// Cancelled mid-wait: the id was not attempted.
			report.Cancelled = true
			runErr = err
			break
		}
		outcome.Err = err
		if outcome.OK() {
			outcome.Name = record.Name
		}
		report.Outcomes = append(report.Outcomes, outcome)
		r.logOutcome(logger, outcome)
		if r.observer != nil {
			r.observer(outcome)
		}
	}

	report.FinishedAt = r.now()
	stats := report.Stats()
	logger.Info("fetch run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("total", stats.Total),
		logging.Int("cached", stats.Cached),
		logging.Int("fetched", stats.Fetched),
		logging.Int("failed", stats.Failed),
		logging.Bool("cancelled", report.Cancelled),
		logging.Duration("duration", stats.Duration))
	return report, runErr
}

func (r runner) logOutcome(logger *slog.Logger, o Outcome) {
	idAttr := logging.Uint64(logging.FieldAppID, o.ID)
	switch kind := Classify(o.Err); kind {
	case KindNone:
		logger.Debug("resolved app",
			idAttr,
			logging.String("name", o.Name),
			logging.Bool("cached", o.Cached))
	case KindPersistence:
		logging.WarnWithContext(logger, "record fetched but cache not saved",
			"cache_save_failed",
			idAttr,
			logging.Error(o.Err),
			logging.String(logging.FieldErrorHint, "check free space and permissions of the cache directory"),
			logging.String(logging.FieldImpact, "record will be fetched again next run unless a later save succeeds"))
	default:
		attrs := []logging.Attr{
			idAttr,
			logging.Error(o.Err),
			logging.String("failure_kind", kind),
			logging.String(logging.FieldErrorHint, hintFor(kind)),
			logging.String(logging.FieldImpact, "app skipped for this run"),
		}
		var formatErr *catalog.ResponseFormatError
		if errors.As(o.Err, &formatErr) {
			attrs = append(attrs,
				logging.Int("status", formatErr.StatusCode),
				logging.String("body", formatErr.Excerpt()))
		}
		logging.WarnWithContext(logger, "failed to resolve app", "app_resolve_failed", attrs...)
	}
}

func hintFor(kind string) string {
	switch kind {
	case KindResponseFormat:
		return "the store returned an unexpected body; inspect the body field"
	case KindMissingEntry:
		return "the store response did not mention this app id"
	case KindRemoteFailure:
		return "the store has no public details for this app (delisted or region locked)"
	case KindMissingPayload:
		return "the store reported success without data; retry later"
	case KindTimeout:
		return "the store did not answer in time; raise catalog.request_timeout_seconds or retry later"
	default:
		return "check network connectivity and catalog.base_url"
	}
}
