package health

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the fixed sampling cadence of the monitor.
const DefaultInterval = 5 * time.Second

// Monitor republishes a connection boolean on a fixed interval. The value is
// presentational only and never gates mutations.
type Monitor struct {
	sampler  Sampler
	interval time.Duration

	mu        sync.Mutex
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
	changes   chan struct{}
}

// NewMonitor builds a monitor around sampler. A nil sampler uses the
// simulated RandomSampler; a non-positive interval uses DefaultInterval.
func NewMonitor(sampler Sampler, interval time.Duration) *Monitor {
	if sampler == nil {
		sampler = NewRandomSampler()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		sampler:   sampler,
		interval:  interval,
		connected: true,
		changes:   make(chan struct{}, 1),
	}
}

// Start resets the status to connected and begins sampling until ctx is
// cancelled or Stop is called. Starting a running monitor restarts it.
func (m *Monitor) Start(ctx context.Context) {
	m.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.connected = true
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()
	m.notify()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
			healthy := m.sampler.Sample(runCtx)
			if runCtx.Err() != nil {
				return
			}
			m.mu.Lock()
			m.connected = healthy
			m.mu.Unlock()
			m.notify()
		}
	}()
}

// Stop cancels the sampling timer and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Connected returns the latest published status.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Changes signals after every tick. At most one signal is buffered.
func (m *Monitor) Changes() <-chan struct{} {
	return m.changes
}

func (m *Monitor) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
