// Package orchestrator fans one search request out to the enabled, healthy
// source adapters, isolates per-adapter failures and assembles one ranked
// result. It owns the result cache and the adapter health state.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/ranking"
	"github.com/jobatlas/jobatlas/internal/source"

	"go.uber.org/zap"
)

// Mode selects how eligible adapters are dispatched.
type Mode string

const (
	// ModeParallel invokes all eligible adapters concurrently and waits for
	// every call to settle. A slow adapter never cancels its siblings.
	ModeParallel Mode = "parallel"
	// ModeSequential walks the adapters in configured order and may stop
	// early once enough postings accumulated.
	ModeSequential Mode = "sequential"

	DefaultTimeout = 15 * time.Second

	// sequentialStopFactor: the sequential loop stops once accumulated
	// postings reach this multiple of the request limit.
	sequentialStopFactor = 2
)

// Config tunes one Orchestrator instance. Zero values use the defaults.
type Config struct {
	Timeout          time.Duration
	Mode             Mode
	CacheTTL         time.Duration
	CacheCapacity    int
	FailureThreshold int
	Cooldown         time.Duration
}

type Orchestrator struct {
	adapters []source.Adapter
	byName   map[string]source.Adapter
	health   *Monitor
	cache    *Cache
	pipeline *ranking.Pipeline
	timeout  time.Duration
	mode     Mode
	logger   *zap.Logger

	now func() time.Time
}

func New(cfg Config, adapters []source.Adapter, logger *zap.Logger) *Orchestrator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeParallel
	}

	byName := make(map[string]source.Adapter, len(adapters))
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		byName[adapter.Name()] = adapter
		names = append(names, adapter.Name())
	}

	return &Orchestrator{
		adapters: adapters,
		byName:   byName,
		health:   NewMonitor(names, cfg.FailureThreshold, cfg.Cooldown, logger),
		cache:    NewCache(cfg.CacheTTL, cfg.CacheCapacity),
		pipeline: ranking.NewPipeline(logger),
		timeout:  timeout,
		mode:     mode,
		logger:   logger,
		now:      time.Now,
	}
}

// Health exposes the monitor for probe loops and status reporting.
func (o *Orchestrator) Health() *Monitor { return o.health }

// Adapters returns the configured adapters in dispatch order.
func (o *Orchestrator) Adapters() []source.Adapter { return o.adapters }

// Close releases background resources.
func (o *Orchestrator) Close() { o.cache.Stop() }

// outcome is one settled adapter call.
type outcome struct {
	adapter string
	batch   *jobs.Postings
	err     error
	took    time.Duration
}

// Search runs one orchestrated search: cache check, fan-out to the enabled
// healthy adapters, merge/dedup/rank. Per-adapter errors are accumulated in
// the result; the search itself fails only on a malformed request or when
// every adapter errored and no fallback postings were produced.
func (o *Orchestrator) Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	norm := req.Normalize()
	start := o.now()

	key := norm.CacheKey()
	if cached, ok := o.cache.Get(key); ok {
		o.logger.Debug("cache hit", zap.String("query", norm.Query))
		return cached, nil
	}

	names := norm.Sources
	if len(names) == 0 {
		names = make([]string, 0, len(o.adapters))
		for _, adapter := range o.adapters {
			names = append(names, adapter.Name())
		}
	}

	var outcomes []outcome
	switch o.mode {
	case ModeSequential:
		outcomes = o.dispatchSequential(ctx, norm, names)
	default:
		outcomes = o.dispatchParallel(ctx, norm, names)
	}

	result, err := o.assemble(norm, outcomes, start)
	if err != nil {
		return nil, err
	}

	o.cache.Put(key, result)
	return result, nil
}

// SearchAll is the batch entry point: it fans the query across the full
// default adapter set, then unions and dedups the postings once more.
func (o *Orchestrator) SearchAll(ctx context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error) {
	all := *req
	all.Sources = nil

	result, err := o.Search(ctx, &all)
	if err != nil {
		return nil, err
	}

	// Copy before the extra dedup so the cached result stays untouched.
	batch := *result
	batch.Postings = ranking.Dedup(result.Postings)
	batch.TotalCount = len(batch.Postings)
	return &batch, nil
}

func (o *Orchestrator) dispatchParallel(ctx context.Context, req *jobs.SearchRequest, names []string) []outcome {
	var wg sync.WaitGroup
	results := make(chan outcome, len(names))

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			results <- o.invoke(ctx, name, req)
		}(name)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Every call settles (success, error or timeout) before merging starts.
	var outcomes []outcome
	for out := range results {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (o *Orchestrator) dispatchSequential(ctx context.Context, req *jobs.SearchRequest, names []string) []outcome {
	var outcomes []outcome
	accumulated := 0

	for _, name := range names {
		out := o.invoke(ctx, name, req)
		outcomes = append(outcomes, out)

		if out.err == nil {
			accumulated += out.batch.Len()
		}
		if accumulated >= sequentialStopFactor*req.Limit {
			o.logger.Debug("sequential early stop",
				zap.String("after", name),
				zap.Int("accumulated", accumulated),
			)
			break
		}
	}

	return outcomes
}

// invoke runs one adapter call under the per-call timeout and feeds the
// settled outcome into the health monitor.
func (o *Orchestrator) invoke(ctx context.Context, name string, req *jobs.SearchRequest) outcome {
	adapter, ok := o.byName[name]
	if !ok {
		return outcome{adapter: name, err: jobs.UnsupportedSource(fmt.Sprintf("unknown source %q", name), nil)}
	}

	if !o.health.Eligible(name) {
		return outcome{adapter: name, err: jobs.Transport("adapter is cooling down", nil)}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := o.now()
	settled := make(chan outcome, 1)

	go func() {
		batch, err := adapter.Search(callCtx, req)
		settled <- outcome{adapter: name, batch: batch, err: err, took: time.Since(start)}
	}()

	var out outcome
	select {
	case <-callCtx.Done():
		// The context is threaded into the transport, so the underlying
		// call is torn down rather than abandoned.
		out = outcome{adapter: name, err: jobs.Timeout("call exceeded its budget", callCtx.Err()), took: time.Since(start)}
	case out = <-settled:
	}

	if out.err != nil {
		o.health.RecordFailure(name)
		o.logger.Debug("adapter call failed",
			zap.String("adapter", name),
			zap.Duration("took", out.took),
			zap.Error(out.err),
		)
		return out
	}

	o.health.RecordSuccess(name)
	o.logger.Debug("adapter call done",
		zap.String("adapter", name),
		zap.Int("count", out.batch.Len()),
		zap.Duration("took", out.took),
	)
	return out
}

func (o *Orchestrator) assemble(req *jobs.SearchRequest, outcomes []outcome, start time.Time) (*jobs.SearchResult, error) {
	perSource := make(map[string]int)
	var sourceErrors []jobs.SourceError
	var batches []*jobs.Postings
	failures := 0

	for _, out := range outcomes {
		if out.err != nil {
			failures++
			sourceErrors = append(sourceErrors, jobs.SourceError{
				Source:  out.adapter,
				Message: out.err.Error(),
			})
			continue
		}

		filtered := &jobs.Postings{}
		for _, posting := range out.batch.Items {
			if req.Filters.Matches(posting) {
				filtered.Append(posting)
			}
		}
		perSource[out.adapter] = filtered.Len()
		batches = append(batches, filtered)
	}

	ranked, step := o.pipeline.Run(batches...)

	if len(ranked) == 0 && req.AllowFallback {
		fallback := ranking.Rank(source.FallbackBatch(req, o.now()).Items, o.now())
		perSource[source.NameFallback] = len(fallback)
		ranked = fallback
	}

	if failures == len(outcomes) && len(ranked) == 0 {
		return nil, jobs.AllSourcesFailed(
			fmt.Sprintf("all %d sources failed and no fallback data was produced", failures), nil)
	}

	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	took := o.now().Sub(start)
	o.logger.Info("search done",
		zap.String("query", req.Query),
		zap.Int("merged", step.Merged),
		zap.Int("duplicates", step.Duplicates),
		zap.Int("returned", len(ranked)),
		zap.Int("failed_sources", failures),
		zap.Duration("took", took),
	)

	return &jobs.SearchResult{
		Postings:        ranked,
		TotalCount:      len(ranked),
		PerSourceCounts: perSource,
		Errors:          sourceErrors,
		AlgorithmID:     ranking.AlgorithmID,
		TookMillis:      took.Milliseconds(),
	}, nil
}
