package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/internal/messaging"
)

const (
	defaultConfirmTimeout = 5 * time.Second
	confirmBuffer         = 64
)

var (
	ErrPublishNacked   = errors.New("rabbitmq: message was nacked by broker")
	ErrConfirmTimeout  = errors.New("rabbitmq: confirmation timed out")
	ErrChannelClosed   = errors.New("rabbitmq: channel closed")
	ErrPublisherClosed = errors.New("rabbitmq: publisher is closed")
)

// ConfirmChannel is the subset of *amqp.Channel used for confirmed publishing.
type ConfirmChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelFactory opens a new channel for the publisher.
type ChannelFactory func() (ConfirmChannel, error)

// Publisher publishes to a topic exchange and waits for the broker confirm.
// Publishes are serialized so each confirm matches the message just sent.
// When the channel closes, a confirm times out or the caller gives up, the
// channel is discarded and reopened on the next publish.
type Publisher struct {
	open           ChannelFactory
	exchange       string
	confirmTimeout time.Duration
	logger         *zap.Logger

	publishMu sync.Mutex
	ch        ConfirmChannel
	confirms  chan amqp.Confirmation
	closed    chan *amqp.Error
	shutdown  bool
}

func NewPublisher(open ChannelFactory, exchange string, confirmTimeout time.Duration, logger *zap.Logger) *Publisher {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		open:           open,
		exchange:       exchange,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}
}

// Publish routes msg by its topic. A nil error means the broker confirmed it.
func (p *Publisher) Publish(ctx context.Context, msg messaging.Message) error {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	if p.shutdown {
		return ErrPublisherClosed
	}
	if err := p.ensureChannel(); err != nil {
		return err
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now().UTC(),
		Type:         msg.Headers[messaging.HeaderMessageType],
		Headers:      toTable(msg.Headers),
		Body:         msg.Body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, msg.Topic, false, false, publishing); err != nil {
		p.invalidate()
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}

	err := p.waitForConfirm(ctx)
	if err != nil && !errors.Is(err, ErrPublishNacked) {
		// A confirm still in flight would be read by the next publish.
		p.invalidate()
	}
	return err
}

func (p *Publisher) waitForConfirm(ctx context.Context) error {
	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()

	select {
	case confirmed, ok := <-p.confirms:
		if !ok {
			return ErrChannelClosed
		}
		if !confirmed.Ack {
			return fmt.Errorf("%w: delivery_tag=%d", ErrPublishNacked, confirmed.DeliveryTag)
		}
		return nil
	case amqpErr := <-p.closed:
		if amqpErr != nil {
			return fmt.Errorf("%w: %s", ErrChannelClosed, amqpErr.Reason)
		}
		return ErrChannelClosed
	case <-timer.C:
		return ErrConfirmTimeout
	case <-ctx.Done():
		return fmt.Errorf("wait for confirm: %w", ctx.Err())
	}
}

func (p *Publisher) ensureChannel() error {
	if p.ch != nil {
		select {
		case <-p.closed:
			p.logger.Warn("publisher channel closed, reopening")
			p.ch = nil
		default:
			return nil
		}
	}

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("open publisher channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("enable confirm mode: %w", err)
	}
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))
	p.closed = ch.NotifyClose(make(chan *amqp.Error, 1))
	p.ch = ch
	return nil
}

func (p *Publisher) invalidate() {
	if p.ch == nil {
		return
	}
	_ = p.ch.Close()
	p.ch = nil
}

// Close closes the current channel. Later publishes fail.
func (p *Publisher) Close() error {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	p.shutdown = true
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func toTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}
	table := make(amqp.Table, len(headers))
	for k, v := range headers {
		table[k] = v
	}
	return table
}

var _ messaging.Publisher = (*Publisher)(nil)
