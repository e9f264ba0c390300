package sync

import (
	"context"
	gosync "sync"
	"time"

	apperrors "github.com/moniehq/moniesync/internal/errors"
	"github.com/moniehq/moniesync/internal/logging"
)

// Prober checks whether the API is reachable right now.
type Prober interface {
	Probe(ctx context.Context) error
}

// Monitor tracks connectivity with a periodic probe and triggers a sync
// run on every offline-to-online transition. It implements Connectivity
// for the engine and the interceptor.
type Monitor struct {
	prober   Prober
	interval time.Duration

	engine   *Engine
	onChange func(online bool)

	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.RWMutex
	online    bool
	isRunning bool
}

// NewMonitor creates a Monitor. Connectivity is assumed up until the
// first probe says otherwise.
func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		online:   true,
	}
}

// SetEngine attaches the engine to trigger when connectivity returns.
func (m *Monitor) SetEngine(e *Engine) {
	m.engine = e
}

// SetOnChange attaches a callback fired on every connectivity flip.
func (m *Monitor) SetOnChange(fn func(online bool)) {
	m.onChange = fn
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Start begins the probe loop. Calling Start twice is a no-op, and a
// stopped monitor may be started again.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go m.probeLoop(ctx, stopCh)

	logging.Info("connectivity monitor started", map[string]interface{}{
		"interval": m.interval.String(),
	})
}

// Stop halts the probe loop and waits for it to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	stopCh := m.stopCh
	m.mu.Unlock()

	close(stopCh)
	m.wg.Wait()

	logging.Info("connectivity monitor stopped")
}

// SetOnline overrides the connectivity state, firing the same transition
// handling a probe result would. The daemon exposes this for explicit
// online/offline toggling and tests use it directly.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.mu.Unlock()

	logging.Info("connectivity changed", map[string]interface{}{"online": online})

	if m.onChange != nil {
		m.onChange(online)
	}

	if online && m.engine != nil {
		go func() {
			_, err := m.engine.TriggerSync(context.Background())
			if err != nil && !apperrors.Is(err, apperrors.ErrSyncInProgress) {
				logging.Error("sync after reconnect failed", err)
			}
		}()
	}
}

func (m *Monitor) probeLoop(ctx context.Context, stopCh <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := m.prober.Probe(probeCtx)
	m.SetOnline(err == nil)
}
