package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/fastygo/moneytracker/internal/messaging"
)

const (
	fieldID      = "id"
	fieldBody    = "body"
	fieldHeaders = "headers"
)

// StreamPublisher appends messages to the stream named by the message topic.
type StreamPublisher struct {
	client goRedis.UniversalClient
	maxLen int64
}

func NewStreamPublisher(client goRedis.UniversalClient, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, msg messaging.Message) error {
	headers, err := json.Marshal(msg.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	args := &goRedis.XAddArgs{
		Stream: msg.Topic,
		Values: map[string]any{
			fieldID:      msg.ID,
			fieldBody:    msg.Body,
			fieldHeaders: headers,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", msg.Topic, err)
	}
	return nil
}

// StreamSubscriptionConfig identifies a consumer inside a consumer group.
type StreamSubscriptionConfig struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
}

// StreamSubscription reads a stream through a consumer group. Entries this
// consumer read earlier but never acknowledged are replayed before new ones.
type StreamSubscription struct {
	client goRedis.UniversalClient
	cfg    StreamSubscriptionConfig
	replay bool
	closed chan struct{}
}

// NewStreamSubscription creates the group (and the stream) when missing.
func NewStreamSubscription(ctx context.Context, client goRedis.UniversalClient, cfg StreamSubscriptionConfig) (*StreamSubscription, error) {
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	err := client.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("create consumer group %s on %s: %w", cfg.Group, cfg.Stream, err)
	}
	return &StreamSubscription{
		client: client,
		cfg:    cfg,
		replay: true,
		closed: make(chan struct{}),
	}, nil
}

func (s *StreamSubscription) Fetch(ctx context.Context) (*messaging.Delivery, error) {
	for {
		select {
		case <-s.closed:
			return nil, messaging.ErrSubscriptionClosed
		default:
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := ">"
		if s.replay {
			start = "0"
		}
		streams, err := s.client.XReadGroup(ctx, &goRedis.XReadGroupArgs{
			Group:    s.cfg.Group,
			Consumer: s.cfg.Consumer,
			Streams:  []string{s.cfg.Stream, start},
			Count:    1,
			Block:    s.cfg.Block,
		}).Result()
		if errors.Is(err, goRedis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("xreadgroup %s: %w", s.cfg.Stream, err)
		}

		entry, ok := firstEntry(streams)
		if !ok {
			s.replay = false
			continue
		}
		return s.delivery(entry, s.replay), nil
	}
}

func (s *StreamSubscription) delivery(entry goRedis.XMessage, redelivered bool) *messaging.Delivery {
	msg := decodeEntry(s.cfg.Stream, entry)
	id := entry.ID
	return messaging.NewDelivery(msg, id, redelivered, func(ctx context.Context) error {
		return s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, id).Err()
	})
}

func (s *StreamSubscription) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func firstEntry(streams []goRedis.XStream) (goRedis.XMessage, bool) {
	for _, stream := range streams {
		if len(stream.Messages) > 0 {
			return stream.Messages[0], true
		}
	}
	return goRedis.XMessage{}, false
}

// decodeEntry never fails: a malformed entry becomes a message with whatever
// fields were readable, and the worker dead-letters it when the body does not
// decode.
func decodeEntry(stream string, entry goRedis.XMessage) messaging.Message {
	msg := messaging.Message{
		ID:      entry.ID,
		Topic:   stream,
		Headers: map[string]string{},
	}
	if id, ok := entry.Values[fieldID].(string); ok && id != "" {
		msg.ID = id
	}
	if body, ok := entry.Values[fieldBody].(string); ok {
		msg.Body = []byte(body)
	}
	if raw, ok := entry.Values[fieldHeaders].(string); ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &msg.Headers)
	}
	return msg
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

var (
	_ messaging.Publisher    = (*StreamPublisher)(nil)
	_ messaging.Subscription = (*StreamSubscription)(nil)
)
