package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
	"appshelf/internal/fetch"
	"appshelf/internal/manifest"
	"appshelf/internal/pipeline"
	"appshelf/internal/ratelimit"
)

func TestDedupSortsAndCollapses(t *testing.T) {
	in := []uint64{5, 3, 5, 1, 3}
	got := pipeline.Dedup(in)
	if want := []uint64{1, 3, 5}; !slices.Equal(got, want) {
		t.Fatalf("Dedup(%v) = %v, want %v", in, got, want)
	}
	if !slices.Equal(in, []uint64{5, 3, 5, 1, 3}) {
		t.Fatalf("Dedup modified its input: %v", in)
	}
	if got := pipeline.Dedup(nil); len(got) != 0 {
		t.Fatalf("Dedup(nil) = %v", got)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	ids := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	shuffled := slices.Clone(ids)
	pipeline.Shuffle(shuffled, pipeline.NewSeededRand(7))

	sorted := slices.Clone(shuffled)
	slices.Sort(sorted)
	if !slices.Equal(sorted, ids) {
		t.Fatalf("shuffle lost or duplicated ids: %v", shuffled)
	}

	again := slices.Clone(ids)
	pipeline.Shuffle(again, pipeline.NewSeededRand(7))
	if !slices.Equal(again, shuffled) {
		t.Fatalf("same seed produced different orders: %v vs %v", again, shuffled)
	}
}

func TestPlanDedupsAndLimits(t *testing.T) {
	lib := manifest.Library{Folders: map[string]manifest.Folder{
		"0": {Apps: map[uint64]uint64{10: 1, 20: 1, 30: 1}},
		"1": {Apps: map[uint64]uint64{20: 1, 40: 1}},
	}}

	all := pipeline.Plan(lib, pipeline.NewSeededRand(1), 0)
	sorted := slices.Clone(all)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []uint64{10, 20, 30, 40}) {
		t.Fatalf("unexpected plan %v", all)
	}

	limited := pipeline.Plan(lib, pipeline.NewSeededRand(1), 2)
	if len(limited) != 2 {
		t.Fatalf("expected 2 ids, got %v", limited)
	}
}

type fakeResolver struct {
	cached   map[uint64]catalog.Record
	failures map[uint64]error
	calls    []uint64
	onCall   func(id uint64)
}

func (f *fakeResolver) Cached(id uint64) bool {
	_, ok := f.cached[id]
	return ok
}

func (f *fakeResolver) Resolve(ctx context.Context, id uint64) (catalog.Record, error) {
	f.calls = append(f.calls, id)
	if f.onCall != nil {
		f.onCall(id)
	}
	if err := ctx.Err(); err != nil {
		return catalog.Record{}, err
	}
	if rec, ok := f.cached[id]; ok {
		return rec, nil
	}
	if err := f.failures[id]; err != nil {
		if errors.Is(err, cachestore.ErrPersistence) {
			return catalog.Record{ID: int64(id), Name: fmt.Sprintf("App %d", id)}, err
		}
		return catalog.Record{}, err
	}
	rec := catalog.Record{ID: int64(id), Name: fmt.Sprintf("App %d", id)}
	f.cached[id] = rec
	return rec, nil
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	resolver := &fakeResolver{
		cached:   map[uint64]catalog.Record{},
		failures: map[uint64]error{2: fmt.Errorf("app 2: %w", catalog.ErrRemoteFailure)},
	}

	var observed []uint64
	report, err := pipeline.Run(context.Background(), pipeline.Sequence([]uint64{1, 2, 3}), resolver,
		pipeline.WithClock(fixedClock()),
		pipeline.WithRunID("run-1"),
		pipeline.WithObserver(func(o pipeline.Outcome) { observed = append(observed, o.ID) }))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", report.RunID)
	}
	if !slices.Equal(resolver.calls, []uint64{1, 2, 3}) {
		t.Fatalf("unexpected resolve order %v", resolver.calls)
	}
	if !slices.Equal(observed, []uint64{1, 2, 3}) {
		t.Fatalf("observer saw %v", observed)
	}
	if _, ok := resolver.cached[1]; !ok {
		t.Fatal("expected id 1 cached")
	}
	if _, ok := resolver.cached[3]; !ok {
		t.Fatal("expected id 3 cached")
	}
	if _, ok := resolver.cached[2]; ok {
		t.Fatal("failed id must not be cached")
	}

	stats := report.Stats()
	if stats.Total != 3 || stats.Fetched != 2 || stats.Failed != 1 || stats.Cached != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].ID != 2 {
		t.Fatalf("unexpected failures %+v", failures)
	}
	if pipeline.Classify(failures[0].Err) != pipeline.KindRemoteFailure {
		t.Fatalf("unexpected kind %q", pipeline.Classify(failures[0].Err))
	}
	if !report.FinishedAt.After(report.StartedAt) {
		t.Fatalf("expected finish after start: %v %v", report.StartedAt, report.FinishedAt)
	}
}

func TestRunMarksCachedOutcomes(t *testing.T) {
	resolver := &fakeResolver{
		cached:   map[uint64]catalog.Record{7: {ID: 7, Name: "Cached"}},
		failures: map[uint64]error{},
	}
	report, err := pipeline.Run(context.Background(), pipeline.Sequence([]uint64{7, 8}), resolver)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !report.Outcomes[0].Cached || report.Outcomes[0].Name != "Cached" {
		t.Fatalf("unexpected first outcome %+v", report.Outcomes[0])
	}
	if report.Outcomes[1].Cached {
		t.Fatalf("expected second outcome to be a fetch: %+v", report.Outcomes[1])
	}
	if report.RunID == "" {
		t.Fatal("expected generated run id")
	}
}

func TestRunPersistenceFailureKeepsRecord(t *testing.T) {
	resolver := &fakeResolver{
		cached:   map[uint64]catalog.Record{},
		failures: map[uint64]error{4: fmt.Errorf("app 4: %w", cachestore.ErrPersistence)},
	}
	report, err := pipeline.Run(context.Background(), pipeline.Sequence([]uint64{4}), resolver)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	outcome := report.Outcomes[0]
	if !outcome.OK() || outcome.Name != "App 4" {
		t.Fatalf("expected usable outcome, got %+v", outcome)
	}
	if stats := report.Stats(); stats.Unsaved != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := &fakeResolver{cached: map[uint64]catalog.Record{}, failures: map[uint64]error{}}
	resolver.onCall = func(id uint64) {
		if id == 2 {
			cancel()
		}
	}

	report, err := pipeline.Run(ctx, pipeline.Sequence([]uint64{1, 2, 3, 4}), resolver)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Cancelled {
		t.Fatal("expected report to be marked cancelled")
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].ID != 1 {
		t.Fatalf("expected only id 1 recorded, got %+v", report.Outcomes)
	}
	if slices.Contains(resolver.calls, 3) {
		t.Fatalf("resolver called after cancellation: %v", resolver.calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, pipeline.KindNone},
		{fmt.Errorf("x: %w", cachestore.ErrPersistence), pipeline.KindPersistence},
		{&catalog.ResponseFormatError{AppID: 1, Body: "<html>"}, pipeline.KindResponseFormat},
		{fmt.Errorf("app 1: %w", catalog.ErrMissingEntry), pipeline.KindMissingEntry},
		{fmt.Errorf("app 1: %w", catalog.ErrMissingPayload), pipeline.KindMissingPayload},
		{context.Canceled, pipeline.KindCancelled},
		{fmt.Errorf("app 1: %w", context.DeadlineExceeded), pipeline.KindTimeout},
		{&url.Error{Op: "Get", URL: "http://store", Err: timeoutError{}}, pipeline.KindTimeout},
		{errors.New("connection refused"), pipeline.KindTransport},
	}
	for _, tt := range tests {
		if got := pipeline.Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestRunClassifiesRequestTimeoutWithoutCancelling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := catalog.New(server.URL, "english", catalog.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	store := cachestore.New(t.TempDir(), cachestore.FormatCompact, nil)
	resolver, err := fetch.New(store, client, ratelimit.New(0))
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}

	report, err := pipeline.Run(context.Background(), pipeline.Sequence([]uint64{1, 2}), resolver)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Cancelled {
		t.Fatal("request timeouts must not mark the run cancelled")
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected both ids attempted, got %+v", report.Outcomes)
	}
	for _, o := range report.Outcomes {
		if kind := pipeline.Classify(o.Err); kind != pipeline.KindTimeout {
			t.Fatalf("id %d classified %q (%v), want %q", o.ID, kind, o.Err, pipeline.KindTimeout)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("timed out ids must not be cached, store has %d", store.Len())
	}
}

func TestRunLogsBodyExcerptForFormatErrors(t *testing.T) {
	resolver := &fakeResolver{
		cached: map[uint64]catalog.Record{},
		failures: map[uint64]error{7: &catalog.ResponseFormatError{
			AppID:      7,
			StatusCode: 503,
			Body:       "<html>" + strings.Repeat("x", 200_000) + "</html>",
		}},
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	if _, err := pipeline.Run(context.Background(), pipeline.Sequence([]uint64{7}), resolver,
		pipeline.WithLogger(logger)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var warned map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if entry["event_type"] == "app_resolve_failed" {
			warned = entry
		}
	}
	if warned == nil {
		t.Fatalf("expected app_resolve_failed warning, got %q", buf.String())
	}
	body, _ := warned["body"].(string)
	if !strings.HasPrefix(body, "<html>") || len(body) > 2100 {
		t.Fatalf("expected a bounded body excerpt, got %d bytes", len(body))
	}
	if warned["status"] != float64(503) {
		t.Fatalf("expected status 503, got %v", warned["status"])
	}
}
