package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/internal/infrastructure/buffer"
	"github.com/fastygo/moneytracker/usecase"
)

// EventBuffer adapts the relay to the use-case outbox port.
type EventBuffer struct {
	relay *EventRelay
}

func NewEventBuffer(relay *EventRelay) *EventBuffer {
	return &EventBuffer{relay: relay}
}

func (b *EventBuffer) BufferEvent(_ context.Context, topic string, envelope domain.Envelope) error {
	if b.relay == nil || topic == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode envelope", err)
	}
	return b.relay.Park(buffer.Item{
		Topic:       topic,
		MessageType: envelope.MessageType,
		OccurredAt:  envelope.OccurredAt,
		Data:        payload,
		Priority:    buffer.PriorityNormal,
	})
}

var _ usecase.EventBuffer = (*EventBuffer)(nil)
