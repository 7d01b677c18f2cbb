package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const checkTimeout = 3 * time.Second

// Pinger is implemented by every checked dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Sizer reports how many events wait in the outbox.
type Sizer interface {
	Size() int
}

// SizeFunc adapts a function to Sizer.
type SizeFunc func() int

func (f SizeFunc) Size() int { return f() }

// Monitor pings dependencies on an interval and caches the result. The relay
// asks IsOnline before draining the outbox.
type Monitor struct {
	checks map[string]Pinger
	broker string
	outbox Sizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	logger   *zap.Logger
}

// New creates a monitor. broker names the entry in checks that IsOnline
// reflects.
func New(checks map[string]Pinger, broker string, outbox Sizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		broker:   broker,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start checks once synchronously, then keeps checking in the background.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Broker
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh checks every dependency now.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Components: make(map[string]Component, len(m.checks)),
		LastCheck:  time.Now().UTC(),
	}
	for name, check := range m.checks {
		status.Components[name] = m.ping(ctx, name, check)
	}
	status.Broker = status.Components[m.broker].Healthy
	if m.outbox != nil {
		status.OutboxSize = m.outbox.Size()
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	for name, c := range status.Components {
		if prev, ok := previous.Components[name]; ok && prev.Healthy != c.Healthy {
			m.logger.Warn("dependency health changed",
				zap.String("component", name),
				zap.Bool("healthy", c.Healthy),
				zap.String("error", c.Error))
		}
	}
}

func (m *Monitor) ping(ctx context.Context, name string, check Pinger) Component {
	if check == nil {
		return Component{Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := check.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("component", name), zap.Error(err))
		return Component{Error: err.Error()}
	}
	return Component{Healthy: true}
}
