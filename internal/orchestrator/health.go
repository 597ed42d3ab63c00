package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/jobatlas/jobatlas/internal/source"

	"go.uber.org/zap"
)

const (
	DefaultFailureThreshold = 3
	DefaultCooldown         = 30 * time.Second
	DefaultProbeInterval    = time.Minute
)

// Health is a point-in-time snapshot of one adapter's availability.
type Health struct {
	Adapter             string    `json:"adapter"`
	Available           bool      `json:"available"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastProbeAt         time.Time `json:"last_probe_at"`
	CooldownUntil       time.Time `json:"cooldown_until"`
}

// adapterState is guarded by its own mutex so concurrently settling adapter
// calls never contend on a global lock.
type adapterState struct {
	mu sync.Mutex
	Health
}

// Monitor tracks per-adapter availability: a failure-count circuit breaker
// fed by settled search calls plus optional periodic liveness probes.
type Monitor struct {
	states    map[string]*adapterState
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger

	now func() time.Time
}

func NewMonitor(adapters []string, threshold int, cooldown time.Duration, logger *zap.Logger) *Monitor {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	states := make(map[string]*adapterState, len(adapters))
	for _, name := range adapters {
		states[name] = &adapterState{Health: Health{Adapter: name, Available: true}}
	}

	return &Monitor{
		states:    states,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

// Eligible reports whether the adapter may be dispatched right now. An
// unavailable adapter becomes eligible again once its cooldown elapsed; the
// next settled call then decides its fate.
func (m *Monitor) Eligible(adapter string) bool {
	state, ok := m.states[adapter]
	if !ok {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.Available {
		return true
	}
	return !m.now().Before(state.CooldownUntil)
}

// RecordSuccess resets the failure counter and reopens the adapter.
func (m *Monitor) RecordSuccess(adapter string) {
	state, ok := m.states[adapter]
	if !ok {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.ConsecutiveFailures = 0
	state.Available = true
	state.CooldownUntil = time.Time{}
}

// RecordFailure increments the failure counter; hitting the threshold parks
// the adapter for one cooldown period.
func (m *Monitor) RecordFailure(adapter string) {
	state, ok := m.states[adapter]
	if !ok {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.ConsecutiveFailures++
	if state.ConsecutiveFailures >= m.threshold {
		state.Available = false
		state.CooldownUntil = m.now().Add(m.cooldown)
		m.logger.Warn("adapter degraded",
			zap.String("adapter", adapter),
			zap.Int("consecutive_failures", state.ConsecutiveFailures),
			zap.Time("cooldown_until", state.CooldownUntil),
		)
	}
}

// Snapshot returns the current health of every tracked adapter in name order.
func (m *Monitor) Snapshot(order []string) []Health {
	snapshot := make([]Health, 0, len(order))
	for _, name := range order {
		state, ok := m.states[name]
		if !ok {
			continue
		}
		state.mu.Lock()
		snapshot = append(snapshot, state.Health)
		state.mu.Unlock()
	}
	return snapshot
}

// Probe runs one liveness round over the given adapters and feeds the
// outcomes back into the breaker state.
func (m *Monitor) Probe(ctx context.Context, adapters []source.Adapter, timeout time.Duration) {
	for _, adapter := range adapters {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		err := adapter.Probe(probeCtx)
		cancel()

		state, ok := m.states[adapter.Name()]
		if !ok {
			continue
		}
		state.mu.Lock()
		state.LastProbeAt = m.now()
		state.mu.Unlock()

		if err != nil {
			m.logger.Debug("probe failed", zap.String("adapter", adapter.Name()), zap.Error(err))
			m.RecordFailure(adapter.Name())
			continue
		}
		m.RecordSuccess(adapter.Name())
	}
}

// Run probes the adapters on a fixed interval until the context is done.
func (m *Monitor) Run(ctx context.Context, adapters []source.Adapter, interval, timeout time.Duration) {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx, adapters, timeout)
		}
	}
}
