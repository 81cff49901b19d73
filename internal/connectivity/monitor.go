// Package connectivity tracks whether the remote API is reachable and fires
// a callback when the connection settles back online. Raw observations come
// from two sources: a periodic probe and explicit hints via Notify. Both feed
// a debounce window so a flapping link produces at most one online event per
// settle, not a burst of sync attempts.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/inqbatorchris/fieldsync/internal/logging"
)

// Prober answers whether the remote is reachable right now.
// remote.Client satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor debounces connectivity observations into a settled online state.
type Monitor struct {
	prober   Prober
	log      logging.Logger
	interval time.Duration
	debounce *Debouncer
	onOnline func()

	mu      sync.Mutex
	online  bool
	pending bool
}

// NewMonitor builds a Monitor. onOnline runs each time the state settles to
// online after having been offline; it may be nil. The monitor starts
// offline until the first observation settles.
func NewMonitor(prober Prober, interval, window time.Duration, onOnline func(), log logging.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if window <= 0 {
		window = 2 * time.Second
	}
	return &Monitor{
		prober:   prober,
		log:      log,
		interval: interval,
		debounce: NewDebouncer(window),
		onOnline: onOnline,
	}
}

// Run probes the remote on the configured interval until ctx is cancelled.
// The first probe happens immediately.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.debounce.Cancel()
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// Notify feeds an out-of-band observation, e.g. a request that just failed
// with a connection error or the platform's network-change signal. It goes
// through the same debounce window as probe results.
func (m *Monitor) Notify(online bool) {
	m.observe(online)
}

// Online reports the settled state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) probe(ctx context.Context) {
	err := m.prober.Ping(ctx)
	if err != nil {
		m.log.Debug(ctx, "connectivity probe failed", "error", err)
	}
	m.observe(err == nil)
}

func (m *Monitor) observe(online bool) {
	m.mu.Lock()
	if m.pending == online {
		// already settled or converging there; repeated observations must
		// not keep pushing the window out
		m.mu.Unlock()
		return
	}
	m.pending = online
	m.mu.Unlock()

	// every flip restarts the window; only a state that holds settles
	m.debounce.Trigger(m.settle)
}

func (m *Monitor) settle() {
	m.mu.Lock()
	changed := m.online != m.pending
	m.online = m.pending
	state := m.online
	m.mu.Unlock()

	if !changed {
		return
	}
	m.log.Info(context.Background(), "connectivity changed", "online", state)
	if state && m.onOnline != nil {
		m.onOnline()
	}
}
