package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/offlinekit/observe"
)

// Notifier receives connectivity transitions. The queue's SetOnline method
// satisfies it.
type Notifier interface {
	SetOnline(online bool)
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Interval between probes. Default: 30 seconds.
	Interval time.Duration

	// Timeout bounds each probe. Default: 5 seconds.
	Timeout time.Duration

	// Logger receives probe diagnostics. Defaults to a no-op logger.
	Logger observe.Logger
}

// Monitor polls a probe and caches the latest reachability verdict.
//
// Contract:
//   - Concurrency: all methods are goroutine-safe.
//   - Transitions: notifiers fire once per verdict flip, never on repeats.
//   - Initial state: online until the first probe says otherwise.
type Monitor struct {
	probe  Probe
	config MonitorConfig

	online atomic.Bool

	mu        sync.Mutex
	notifiers []Notifier

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a Monitor over probe. Call Start to begin polling;
// CheckNow works without it.
func NewMonitor(probe Probe, config MonitorConfig) (*Monitor, error) {
	if probe == nil {
		return nil, ErrNilProbe
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = observe.NewNopLogger()
	}

	m := &Monitor{
		probe:  probe,
		config: config,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.online.Store(true)
	return m, nil
}

// Online reports the latest cached verdict.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Notify registers a listener for connectivity transitions.
func (m *Monitor) Notify(n Notifier) {
	if n == nil {
		return
	}
	m.mu.Lock()
	m.notifiers = append(m.notifiers, n)
	m.mu.Unlock()
}

// CheckNow runs one probe immediately and returns the resulting verdict.
// A verdict flip notifies all registered listeners.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	err := m.probe.Check(ctx)
	online := err == nil
	if err != nil {
		m.config.Logger.Debug(ctx, "probe failed",
			observe.Field{Key: "probe", Value: m.probe.Name()},
			observe.Field{Key: "error", Value: err.Error()})
	}

	if m.online.CompareAndSwap(!online, online) {
		m.config.Logger.Info(ctx, "connectivity changed",
			observe.Field{Key: "probe", Value: m.probe.Name()},
			observe.Field{Key: "online", Value: online})
		m.mu.Lock()
		notifiers := make([]Notifier, len(m.notifiers))
		copy(notifiers, m.notifiers)
		m.mu.Unlock()
		for _, n := range notifiers {
			n.SetOnline(online)
		}
	}
	return online
}

// Start begins polling in the background. It probes once immediately, then
// on every interval tick until Stop is called. Repeated calls are no-ops.
func (m *Monitor) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(m.done)
		ctx := context.Background()
		m.CheckNow(ctx)

		ticker := time.NewTicker(m.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}

// Stop ends polling and waits for the poll loop to exit. Safe to call more
// than once and without a prior Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	if m.started.Load() {
		<-m.done
	}
}
