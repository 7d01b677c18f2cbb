package monitor

import "time"

// Component is the last check result for one dependency.
type Component struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Status struct {
	Components map[string]Component `json:"components"`
	Broker     bool                 `json:"broker"`
	OutboxSize int                  `json:"outbox_size"`
	LastCheck  time.Time            `json:"last_check"`
}

// Healthy reports whether every checked component answered.
func (s Status) Healthy() bool {
	for _, c := range s.Components {
		if !c.Healthy {
			return false
		}
	}
	return true
}
