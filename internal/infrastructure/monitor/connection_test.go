package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedSize int

func (s fixedSize) Size() int { return int(s) }

func TestRefreshTracksBrokerHealth(t *testing.T) {
	brokerErr := errors.New("connection refused")
	var brokerDown bool
	checks := map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"broker": PingFunc(func(context.Context) error {
			if brokerDown {
				return brokerErr
			}
			return nil
		}),
	}
	m := New(checks, "broker", fixedSize(3), 0, nil)

	m.Refresh(context.Background())
	assert.True(t, m.IsOnline())
	status := m.GetStatus()
	assert.True(t, status.Healthy())
	assert.Equal(t, 3, status.OutboxSize)

	brokerDown = true
	m.Refresh(context.Background())
	assert.False(t, m.IsOnline())
	status = m.GetStatus()
	assert.False(t, status.Healthy())
	assert.Equal(t, "connection refused", status.Components["broker"].Error)
	assert.True(t, status.Components["postgres"].Healthy)
}

func TestMissingBrokerCheckIsOffline(t *testing.T) {
	m := New(map[string]Pinger{"broker": nil}, "broker", nil, 0, nil)
	m.Refresh(context.Background())
	assert.False(t, m.IsOnline())
	m.Stop()
	m.Stop()
}
