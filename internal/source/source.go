// Package source contains the adapter contract and one adapter per upstream
// job board. Every adapter normalizes its upstream shape into the shared
// Posting model and guards its own call budget with a sliding-window limiter.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/logger"

	"go.uber.org/zap"
)

// Adapter wraps one upstream job source.
type Adapter interface {
	Name() string
	// Search returns normalized postings for the request or a typed error.
	// It must never mask a failure with an empty list; the orchestrator
	// decides the fallback policy.
	Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.Postings, error)
	// Probe performs a cheap liveness call against the upstream.
	Probe(ctx context.Context) error
	// Limiter exposes the adapter's rate-limit window for status reporting.
	Limiter() *Window
}

// Config carries per-adapter settings. Zero values fall back to the
// adapter's built-in defaults.
type Config struct {
	BaseURL     string
	APIKey      string
	ProxyURL    string
	UserAgent   string
	Timeout     time.Duration
	RateCeiling int
	RateWindow  time.Duration
}

type factory func(cfg *Config, logger *zap.Logger) Adapter

// registry is the constant table of supported sources. Adapters are resolved
// here at startup; there is no runtime registration.
var registry = map[string]factory{
	NameRemotive:  newRemotive,
	NameArbeitnow: newArbeitnow,
	NameJobicy:    newJobicy,
}

// defaultOrder fixes the order sources are dispatched in sequential mode.
var defaultOrder = []string{NameRemotive, NameArbeitnow, NameJobicy}

// Names returns the supported source names in dispatch order.
func Names() []string {
	names := make([]string, len(defaultOrder))
	copy(names, defaultOrder)
	return names
}

// Supported reports whether name resolves to a registered adapter.
func Supported(name string) bool {
	_, ok := registry[name]
	return ok
}

// Build resolves the requested source names against the registry. An unknown
// name fails the whole build with an UnsupportedSource error.
func Build(names []string, configs map[string]*Config, log *zap.Logger) ([]Adapter, error) {
	if len(names) == 0 {
		names = Names()
	}

	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		build, ok := registry[name]
		if !ok {
			return nil, jobs.UnsupportedSource(fmt.Sprintf("unknown source %q", name), nil)
		}

		cfg := configs[name]
		if cfg == nil {
			cfg = &Config{}
		}

		adapters = append(adapters, build(cfg, logger.WithSearchFields(log, name, "")))
	}

	return adapters, nil
}
