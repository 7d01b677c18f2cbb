package rabbitmq

import (
	"context"
	"fmt"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fastygo/moneytracker/internal/messaging"
)

// ConsumeChannel is the subset of *amqp.Channel used by a subscription.
type ConsumeChannel interface {
	TopologyChannel
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// SubscriptionConfig names the queue a consumer group reads.
type SubscriptionConfig struct {
	Exchange string
	Topic    string
	Group    string
	Consumer string
}

// Subscription delivers one message at a time with manual acknowledgement.
type Subscription struct {
	ch         ConsumeChannel
	deliveries <-chan amqp.Delivery
	topic      string
}

// Subscribe declares the group's queue, limits unacknowledged deliveries to
// one and starts consuming.
func Subscribe(ch ConsumeChannel, cfg SubscriptionConfig) (*Subscription, error) {
	queue := QueueName(cfg.Group, cfg.Topic)
	if err := DeclareTopology(ch, cfg.Exchange, Binding{Queue: queue, Topic: cfg.Topic}); err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue, cfg.Consumer, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return &Subscription{ch: ch, deliveries: deliveries, topic: cfg.Topic}, nil
}

func (s *Subscription) Fetch(ctx context.Context) (*messaging.Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return nil, messaging.ErrSubscriptionClosed
		}
		topic := d.RoutingKey
		if topic == "" {
			topic = s.topic
		}
		msg := messaging.Message{
			ID:      d.MessageId,
			Topic:   topic,
			Body:    d.Body,
			Headers: fromTable(d.Headers),
		}
		tag := d.DeliveryTag
		return messaging.NewDelivery(msg, strconv.FormatUint(tag, 10), d.Redelivered, func(context.Context) error {
			return d.Ack(false)
		}), nil
	}
}

func (s *Subscription) Close() error {
	return s.ch.Close()
}

func fromTable(table amqp.Table) map[string]string {
	headers := make(map[string]string, len(table))
	for k, v := range table {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case []byte:
			headers[k] = string(val)
		default:
			headers[k] = fmt.Sprint(val)
		}
	}
	return headers
}

var _ messaging.Subscription = (*Subscription)(nil)
