package usecase

import (
	"context"

	"github.com/fastygo/moneytracker/domain"
)

// EventPublisher sends an envelope to a topic and returns once the broker has
// acknowledged it. Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope domain.Envelope) error
}

// EventBuffer parks envelopes whose publication failed so they can be relayed later.
type EventBuffer interface {
	BufferEvent(ctx context.Context, topic string, envelope domain.Envelope) error
}
