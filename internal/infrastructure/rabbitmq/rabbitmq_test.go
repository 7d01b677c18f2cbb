package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/moneytracker/internal/messaging"
)

type fakeChannel struct {
	mu          sync.Mutex
	autoConfirm *bool
	publishErr  error
	confirms    chan amqp.Confirmation
	closeNotify chan *amqp.Error
	published   []amqp.Publishing
	keys        []string
	closed      bool
	tag         uint64

	exchanges  []string
	queues     []string
	bindings   [][2]string
	qos        int
	deliveries chan amqp.Delivery
}

func newFakeChannel(ack *bool) *fakeChannel {
	return &fakeChannel{autoConfirm: ack, deliveries: make(chan amqp.Delivery, 4)}
}

func (f *fakeChannel) Confirm(bool) error { return nil }

func (f *fakeChannel) NotifyPublish(c chan amqp.Confirmation) chan amqp.Confirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = c
	return c
}

func (f *fakeChannel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeNotify = c
	return c
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.tag++
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	if f.autoConfirm != nil {
		f.confirms <- amqp.Confirmation{DeliveryTag: f.tag, Ack: *f.autoConfirm}
	}
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.exchanges = append(f.exchanges, name+":"+kind)
	if !durable {
		return errors.New("exchange must be durable")
	}
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.queues = append(f.queues, name)
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, _ string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, [2]string{name, key})
	return nil
}

func (f *fakeChannel) Qos(prefetch, _ int, _ bool) error {
	f.qos = prefetch
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeAcknowledger struct {
	acked []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}
func (a *fakeAcknowledger) Nack(uint64, bool, bool) error { return nil }
func (a *fakeAcknowledger) Reject(uint64, bool) error     { return nil }

func factoryFor(channels ...*fakeChannel) (ChannelFactory, *int) {
	opened := 0
	return func() (ConfirmChannel, error) {
		if opened >= len(channels) {
			return nil, errors.New("no more channels")
		}
		ch := channels[opened]
		opened++
		return ch, nil
	}, &opened
}

func testMessage() messaging.Message {
	return messaging.Message{
		ID:      "m1",
		Topic:   "transaction.created",
		Body:    []byte(`{}`),
		Headers: map[string]string{messaging.HeaderMessageType: "TransactionCreatedEvent"},
	}
}

func TestPublisherConfirmed(t *testing.T) {
	ack := true
	ch := newFakeChannel(&ack)
	open, opened := factoryFor(ch)
	pub := NewPublisher(open, "events", time.Second, nil)

	require.NoError(t, pub.Publish(context.Background(), testMessage()))
	require.NoError(t, pub.Publish(context.Background(), testMessage()))

	assert.Equal(t, 1, *opened, "channel is reused while healthy")
	require.Len(t, ch.published, 2)
	assert.Equal(t, "transaction.created", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "TransactionCreatedEvent", ch.published[0].Type)
	assert.Equal(t, "TransactionCreatedEvent", ch.published[0].Headers[messaging.HeaderMessageType])
}

func TestPublisherNack(t *testing.T) {
	nack := false
	ch := newFakeChannel(&nack)
	open, _ := factoryFor(ch)
	pub := NewPublisher(open, "events", time.Second, nil)

	err := pub.Publish(context.Background(), testMessage())
	assert.ErrorIs(t, err, ErrPublishNacked)
	assert.False(t, ch.isClosed(), "a nack leaves the confirm stream in sync")
}

func TestPublisherConfirmTimeoutReopensChannel(t *testing.T) {
	silent := newFakeChannel(nil)
	ack := true
	healthy := newFakeChannel(&ack)
	open, opened := factoryFor(silent, healthy)
	pub := NewPublisher(open, "events", 20*time.Millisecond, nil)

	err := pub.Publish(context.Background(), testMessage())
	assert.ErrorIs(t, err, ErrConfirmTimeout)
	assert.True(t, silent.isClosed())

	require.NoError(t, pub.Publish(context.Background(), testMessage()))
	assert.Equal(t, 2, *opened)
}

func TestPublisherReopensAfterBrokerClose(t *testing.T) {
	ack := true
	first := newFakeChannel(&ack)
	second := newFakeChannel(&ack)
	open, opened := factoryFor(first, second)
	pub := NewPublisher(open, "events", time.Second, nil)

	require.NoError(t, pub.Publish(context.Background(), testMessage()))
	first.closeNotify <- &amqp.Error{Code: 320, Reason: "CONNECTION_FORCED"}

	require.NoError(t, pub.Publish(context.Background(), testMessage()))
	assert.Equal(t, 2, *opened)
	assert.Len(t, second.published, 1)
}

func TestPublisherClosed(t *testing.T) {
	ack := true
	open, _ := factoryFor(newFakeChannel(&ack))
	pub := NewPublisher(open, "events", time.Second, nil)
	require.NoError(t, pub.Close())
	assert.ErrorIs(t, pub.Publish(context.Background(), testMessage()), ErrPublisherClosed)
}

func TestSubscribeDeclaresTopologyAndAcks(t *testing.T) {
	ch := newFakeChannel(nil)
	sub, err := Subscribe(ch, SubscriptionConfig{
		Exchange: "events",
		Topic:    "transaction.created",
		Group:    "workers",
		Consumer: "w-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"events:topic"}, ch.exchanges)
	assert.Equal(t, []string{"workers.transaction.created"}, ch.queues)
	assert.Equal(t, [][2]string{{"workers.transaction.created", "transaction.created"}}, ch.bindings)
	assert.Equal(t, 1, ch.qos)

	acker := &fakeAcknowledger{}
	ch.deliveries <- amqp.Delivery{
		Acknowledger: acker,
		DeliveryTag:  7,
		RoutingKey:   "transaction.created",
		MessageId:    "m1",
		Redelivered:  true,
		Headers:      amqp.Table{messaging.HeaderMessageType: "TransactionCreatedEvent", "x-attempt": int32(2)},
		Body:         []byte(`{}`),
	}

	d, err := sub.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", d.DeliveryID)
	assert.True(t, d.Redelivered)
	assert.Equal(t, "TransactionCreatedEvent", d.Headers[messaging.HeaderMessageType])
	assert.Equal(t, "2", d.Headers["x-attempt"])
	assert.Empty(t, acker.acked)

	require.NoError(t, d.Commit(context.Background()))
	assert.Equal(t, []uint64{7}, acker.acked)
}

func TestSubscriptionFetch(t *testing.T) {
	ch := newFakeChannel(nil)
	sub, err := Subscribe(ch, SubscriptionConfig{Exchange: "events", Topic: "t", Group: "g"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = sub.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(ch.deliveries)
	_, err = sub.Fetch(context.Background())
	assert.ErrorIs(t, err, messaging.ErrSubscriptionClosed)
}

func TestDeclareTopologyForDeadLetters(t *testing.T) {
	ch := newFakeChannel(nil)
	require.NoError(t, DeclareTopology(ch, "events",
		Binding{Queue: QueueName("g", "transaction.created"), Topic: "transaction.created"},
		Binding{Queue: "transaction.created.dlq", Topic: "transaction.created.dlq"},
	))
	assert.Len(t, ch.queues, 2)
	assert.Error(t, DeclareTopology(ch, ""))
}
