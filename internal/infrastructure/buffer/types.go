package buffer

import (
	"time"

	"github.com/google/uuid"
)

// Priorities order the drain: lower values are published first.
const (
	PriorityHigh    = 1
	PriorityNormal  = 3
	PriorityLow     = 5
	defaultPriority = PriorityNormal
)

// Item is an event envelope that could not be handed to the broker and waits
// for the relay to publish it.
type Item struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	MessageType string    `json:"message_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        []byte    `json:"data"`
	Priority    int       `json:"priority"`
	Retries     int       `json:"retries"`
	LastError   string    `json:"last_error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority < PriorityHigh || i.Priority > PriorityLow {
		i.Priority = defaultPriority
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now().UTC()
	}
	if i.OccurredAt.IsZero() {
		i.OccurredAt = i.Timestamp
	}
}
