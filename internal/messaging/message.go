package messaging

import (
	"context"
	"errors"
)

// Header names set on every published message.
const (
	HeaderMessageType = "message-type"
	HeaderOccurredAt  = "occurred-at"

	HeaderDLQReason        = "x-dlq-reason"
	HeaderDLQErrorCode     = "x-dlq-error-code"
	HeaderDLQRetryCount    = "x-dlq-retry-count"
	HeaderDLQOriginalTopic = "x-dlq-original-topic"
	HeaderDLQFailedAt      = "x-dlq-failed-at"
)

// ErrSubscriptionClosed is returned by Fetch once the subscription can no longer deliver.
var ErrSubscriptionClosed = errors.New("messaging: subscription closed")

// Message is the broker-agnostic unit handed to publishers.
type Message struct {
	ID      string
	Topic   string
	Body    []byte
	Headers map[string]string
}

// Publisher sends a message to msg.Topic and returns once the broker accepted it.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscription yields messages from one topic for one consumer group.
// Fetch blocks until a message arrives or ctx is done.
type Subscription interface {
	Fetch(ctx context.Context) (*Delivery, error)
	Close() error
}

// Pinger reports broker reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Delivery is a fetched message. Commit advances the consumer's read position
// past it and must be called at most once.
type Delivery struct {
	Message
	DeliveryID  string
	Redelivered bool

	commit func(ctx context.Context) error
}

// NewDelivery wires a fetched message to the adapter's acknowledgement.
func NewDelivery(msg Message, deliveryID string, redelivered bool, commit func(ctx context.Context) error) *Delivery {
	return &Delivery{
		Message:     msg,
		DeliveryID:  deliveryID,
		Redelivered: redelivered,
		commit:      commit,
	}
}

func (d *Delivery) Commit(ctx context.Context) error {
	if d == nil || d.commit == nil {
		return nil
	}
	return d.commit(ctx)
}

func cloneHeaders(in map[string]string, extra int) map[string]string {
	out := make(map[string]string, len(in)+extra)
	for k, v := range in {
		out[k] = v
	}
	return out
}
