package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/source"

	"go.uber.org/zap"
)

// stubAdapter scripts one adapter's behavior and counts its calls.
type stubAdapter struct {
	name  string
	batch *jobs.Postings
	err   error
	block bool

	calls int32
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(ctx context.Context, _ *jobs.SearchRequest) (*jobs.Postings, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return nil, jobs.Timeout("upstream call canceled", ctx.Err())
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubAdapter) Probe(_ context.Context) error { return s.err }

func (s *stubAdapter) Limiter() *source.Window { return source.NewWindow(0, 0) }

func (s *stubAdapter) callCount() int { return int(atomic.LoadInt32(&s.calls)) }

func batchOf(sourceName string, n int) *jobs.Postings {
	batch := &jobs.Postings{}
	for i := 0; i < n; i++ {
		batch.Append(&jobs.Posting{
			ID:       fmt.Sprintf("%s-%d", sourceName, i),
			Title:    fmt.Sprintf("%s engineer %d", sourceName, i),
			Company:  "Acme",
			Location: "Berlin",
			Source:   sourceName,
		})
	}
	return batch
}

func newTestOrchestrator(cfg Config, adapters ...source.Adapter) *Orchestrator {
	return New(cfg, adapters, zap.NewNop())
}

func TestSearchIsolatesAdapterFailures(t *testing.T) {
	good := &stubAdapter{name: "good", batch: batchOf("good", 3)}
	bad := &stubAdapter{name: "bad", err: jobs.Transport("upstream 500", nil)}

	o := newTestOrchestrator(Config{}, good, bad)
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang"})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if result.TotalCount != 3 {
		t.Fatalf("got %d postings, want 3", result.TotalCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].Source != "bad" {
		t.Fatalf("errors = %+v", result.Errors)
	}
	if result.PerSourceCounts["good"] != 3 {
		t.Fatalf("per-source counts = %+v", result.PerSourceCounts)
	}
}

func TestSearchServesFromCache(t *testing.T) {
	adapter := &stubAdapter{name: "good", batch: batchOf("good", 2)}

	o := newTestOrchestrator(Config{}, adapter)
	defer o.Close()

	first, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang"})
	if err != nil {
		t.Fatalf("first search failed: %s", err)
	}

	// Same query, differently formatted: must hit the cache.
	second, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "  Golang "})
	if err != nil {
		t.Fatalf("second search failed: %s", err)
	}

	if adapter.callCount() != 1 {
		t.Fatalf("adapter called %d times, want 1", adapter.callCount())
	}
	if first != second {
		t.Fatal("cache hit must return the stored result")
	}

	// A different request bypasses the cache.
	if _, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "rust"}); err != nil {
		t.Fatalf("third search failed: %s", err)
	}
	if adapter.callCount() != 2 {
		t.Fatalf("adapter called %d times after a distinct query, want 2", adapter.callCount())
	}
}

func TestSearchRejectsInvalidRequest(t *testing.T) {
	o := newTestOrchestrator(Config{}, &stubAdapter{name: "good", batch: batchOf("good", 1)})
	defer o.Close()

	_, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "   "})
	if !jobs.IsKind(err, jobs.KindValidation) {
		t.Fatalf("err = %v, want a validation error", err)
	}
}

func TestSearchAllSourcesFailed(t *testing.T) {
	o := newTestOrchestrator(Config{},
		&stubAdapter{name: "a", err: jobs.Transport("down", nil)},
		&stubAdapter{name: "b", err: jobs.Transport("down", nil)},
	)
	defer o.Close()

	_, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang"})
	if !jobs.IsKind(err, jobs.KindAllSourcesFailed) {
		t.Fatalf("err = %v, want all-sources-failed", err)
	}
}

func TestSearchFallbackWhenAllFail(t *testing.T) {
	o := newTestOrchestrator(Config{},
		&stubAdapter{name: "a", err: jobs.Transport("down", nil)},
	)
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang", AllowFallback: true})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if result.TotalCount == 0 {
		t.Fatal("fallback postings expected")
	}
	for _, p := range result.Postings {
		if p.Source != source.NameFallback {
			t.Fatalf("posting source = %q, want %q", p.Source, source.NameFallback)
		}
	}
	if len(result.Errors) != 1 {
		t.Fatalf("the upstream failure must still be reported, errors = %+v", result.Errors)
	}
}

func TestSearchTimeoutSettlesSlowAdapter(t *testing.T) {
	slow := &stubAdapter{name: "slow", block: true}
	fast := &stubAdapter{name: "fast", batch: batchOf("fast", 2)}

	o := newTestOrchestrator(Config{Timeout: 50 * time.Millisecond}, slow, fast)
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang"})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if result.TotalCount != 2 {
		t.Fatalf("got %d postings, want the fast adapter's 2", result.TotalCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].Source != "slow" {
		t.Fatalf("errors = %+v, want one timeout from the slow adapter", result.Errors)
	}
}

func TestSearchUnknownRequestedSource(t *testing.T) {
	good := &stubAdapter{name: "good", batch: batchOf("good", 1)}

	o := newTestOrchestrator(Config{}, good)
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{
		Query:   "golang",
		Sources: []string{"good", "nope"},
	})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if len(result.Errors) != 1 || result.Errors[0].Source != "nope" {
		t.Fatalf("errors = %+v, want one for the unknown source", result.Errors)
	}
	if result.TotalCount != 1 {
		t.Fatalf("got %d postings, want 1", result.TotalCount)
	}
}

func TestSearchTruncatesToLimit(t *testing.T) {
	o := newTestOrchestrator(Config{}, &stubAdapter{name: "good", batch: batchOf("good", 30)})
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang", Limit: 5})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if result.TotalCount != 5 || len(result.Postings) != 5 {
		t.Fatalf("got %d postings, want 5", result.TotalCount)
	}
}

func TestSequentialEarlyStop(t *testing.T) {
	first := &stubAdapter{name: "first", batch: batchOf("first", 4)}
	second := &stubAdapter{name: "second", batch: batchOf("second", 4)}

	o := newTestOrchestrator(Config{Mode: ModeSequential}, first, second)
	defer o.Close()

	// Limit 2 stops the walk once 4 postings accumulated from the first
	// adapter; the second is never dispatched.
	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "golang", Limit: 2})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if first.callCount() != 1 {
		t.Fatalf("first adapter called %d times, want 1", first.callCount())
	}
	if second.callCount() != 0 {
		t.Fatalf("second adapter called %d times, want 0", second.callCount())
	}
	if result.TotalCount != 2 {
		t.Fatalf("got %d postings, want the limit of 2", result.TotalCount)
	}
}

func TestSearchSkipsCoolingAdapter(t *testing.T) {
	flaky := &stubAdapter{name: "flaky", err: jobs.Transport("down", nil)}
	steady := &stubAdapter{name: "steady", batch: batchOf("steady", 1)}

	o := newTestOrchestrator(Config{FailureThreshold: 3, Cooldown: time.Hour}, flaky, steady)
	defer o.Close()

	// Three failing searches open the breaker for the flaky adapter.
	for i := 0; i < 3; i++ {
		query := fmt.Sprintf("golang %d", i)
		if _, err := o.Search(context.Background(), &jobs.SearchRequest{Query: query}); err != nil {
			t.Fatalf("search %d failed: %s", i, err)
		}
	}
	if flaky.callCount() != 3 {
		t.Fatalf("flaky adapter called %d times, want 3", flaky.callCount())
	}

	result, err := o.Search(context.Background(), &jobs.SearchRequest{Query: "rust"})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if flaky.callCount() != 3 {
		t.Fatal("cooling adapter must not be dispatched")
	}
	if len(result.Errors) != 1 || result.Errors[0].Source != "flaky" {
		t.Fatalf("errors = %+v, want the cooldown notice", result.Errors)
	}
}

func TestSearchAppliesFilters(t *testing.T) {
	batch := &jobs.Postings{Items: []*jobs.Posting{
		{ID: "1", Title: "Remote Go Engineer", Company: "Acme", Location: "Remote", Source: "good", Remote: true},
		{ID: "2", Title: "Onsite Go Engineer", Company: "Acme", Location: "Berlin", Source: "good"},
	}}

	o := newTestOrchestrator(Config{}, &stubAdapter{name: "good", batch: batch})
	defer o.Close()

	result, err := o.Search(context.Background(), &jobs.SearchRequest{
		Query:   "golang",
		Filters: jobs.Filters{RemoteOnly: true},
	})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if result.TotalCount != 1 || result.Postings[0].ID != "1" {
		t.Fatalf("postings = %+v, want only the remote one", result.Postings)
	}
}

func TestSearchAllDispatchesEveryAdapter(t *testing.T) {
	a := &stubAdapter{name: "a", batch: batchOf("a", 1)}
	b := &stubAdapter{name: "b", batch: batchOf("b", 1)}

	o := newTestOrchestrator(Config{}, a, b)
	defer o.Close()

	result, err := o.SearchAll(context.Background(), &jobs.SearchRequest{
		Query:   "golang",
		Sources: []string{"a"},
	})
	if err != nil {
		t.Fatalf("search failed: %s", err)
	}

	if a.callCount() != 1 || b.callCount() != 1 {
		t.Fatalf("calls = (%d, %d), want both adapters dispatched", a.callCount(), b.callCount())
	}
	if result.TotalCount != 2 {
		t.Fatalf("got %d postings, want 2", result.TotalCount)
	}
}
