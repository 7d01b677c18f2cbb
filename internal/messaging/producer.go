package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/usecase"
)

const defaultPublishTimeout = 5 * time.Second

// Producer serializes envelopes and hands them to a broker Publisher. It holds
// no mutable state of its own, so concurrent use is safe whenever the
// underlying Publisher is.
type Producer struct {
	publisher Publisher
	timeout   time.Duration
	logger    *zap.Logger
}

func NewProducer(publisher Publisher, timeout time.Duration, logger *zap.Logger) *Producer {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{publisher: publisher, timeout: timeout, logger: logger}
}

// Publish sends envelope to topic. A nil error means the broker acknowledged receipt.
func (p *Producer) Publish(ctx context.Context, topic string, envelope domain.Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode envelope", err)
	}
	return p.PublishRaw(ctx, topic, envelope.MessageType, envelope.OccurredAt, body)
}

// PublishRaw sends an already serialized envelope.
func (p *Producer) PublishRaw(ctx context.Context, topic, messageType string, occurredAt time.Time, body []byte) error {
	if topic == "" {
		return domain.NewInvalidArgument("topic", "is required")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := Message{
		ID:    uuid.NewString(),
		Topic: topic,
		Body:  body,
		Headers: map[string]string{
			HeaderMessageType: messageType,
			HeaderOccurredAt:  occurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		var dErr *domain.Error
		if errors.As(err, &dErr) {
			return err
		}
		return domain.NewTransient("publish "+topic, err)
	}

	p.logger.Debug("message published",
		zap.String("topic", topic),
		zap.String("message_id", msg.ID),
		zap.String("message_type", messageType))
	return nil
}

var _ usecase.EventPublisher = (*Producer)(nil)
