package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeKind = "topic"

// ErrConnectionClosed is returned when the AMQP connection is gone.
var ErrConnectionClosed = errors.New("rabbitmq: connection closed")

// Connection owns one AMQP connection and hands out dedicated channels.
type Connection struct {
	url    string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// Dial opens the connection eagerly so a wrong URL fails at startup.
func Dial(url string, logger *zap.Logger) (*Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Connection{url: url, logger: logger}
	if _, err := c.connection(); err != nil {
		return nil, err
	}
	logger.Info("connected to rabbitmq")
	return c, nil
}

func (c *Connection) connection() (*amqp.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	c.conn = conn
	return conn, nil
}

// Channel opens a fresh channel, redialling when the connection dropped.
func (c *Connection) Channel() (*amqp.Channel, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// ConfirmChannel adapts Channel to the publisher's channel factory.
func (c *Connection) ConfirmChannel() (ConfirmChannel, error) {
	return c.Channel()
}

// Ping reports whether the connection is open.
func (c *Connection) Ping(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.logger.Info("rabbitmq connection closed")
	return err
}

// TopologyChannel is the subset of a channel needed to declare topology.
type TopologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Binding routes one topic into one durable queue.
type Binding struct {
	Queue string
	Topic string
}

// QueueName is the durable queue a consumer group reads a topic from.
func QueueName(group, topic string) string {
	if group == "" {
		return topic
	}
	return group + "." + topic
}

// DeclareTopology declares the durable topic exchange and binds every queue to
// it. Redeclaring identical topology is a no-op on the broker.
func DeclareTopology(ch TopologyChannel, exchange string, bindings ...Binding) error {
	if ch == nil {
		return errors.New("rabbitmq: channel is required")
	}
	if exchange == "" {
		return errors.New("rabbitmq: exchange is required")
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.Topic, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Topic, err)
		}
	}
	return nil
}
