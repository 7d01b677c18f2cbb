package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
)

// State is the position of a worker in its poll loop.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateProcessing
	StateCommitting
	StateDeadLettering
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateProcessing:
		return "processing"
	case StateCommitting:
		return "committing"
	case StateDeadLettering:
		return "dead_lettering"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Metadata describes the envelope and delivery a handler is invoked for.
type Metadata struct {
	MessageType string
	OccurredAt  time.Time
	Topic       string
	DeliveryID  string
	Redelivered bool
	Attempt     int
}

// Handler processes one decoded payload.
type Handler[T any] func(ctx context.Context, payload T, meta Metadata) error

// WorkerConfig names what a worker consumes and where failures go.
type WorkerConfig struct {
	Name            string
	Topic           string
	Group           string
	MessageType     string
	DeadLetterTopic string
	Retry           RetryPolicy
}

// Worker owns one poll loop over a subscription. Messages are handled one at a
// time and committed only after the handler succeeded or the message was
// dead-lettered.
type Worker[T any] struct {
	sub         Subscription
	deadLetters Publisher
	handler     Handler[T]
	cfg         WorkerConfig
	logger      *zap.Logger
	state       atomic.Int32
}

func NewWorker[T any](sub Subscription, deadLetters Publisher, handler Handler[T], cfg WorkerConfig, logger *zap.Logger) *Worker[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Group
	}
	if cfg.DeadLetterTopic == "" && cfg.Topic != "" {
		cfg.DeadLetterTopic = cfg.Topic + ".dlq"
	}
	cfg.Retry = cfg.Retry.withDefaults()

	w := &Worker[T]{
		sub:         sub,
		deadLetters: deadLetters,
		handler:     handler,
		cfg:         cfg,
		logger: logger.With(
			zap.String("worker", cfg.Name),
			zap.String("topic", cfg.Topic),
			zap.String("group", cfg.Group)),
	}
	w.state.Store(int32(StateIdle))
	return w
}

// State returns the current loop state.
func (w *Worker[T]) State() State {
	return State(w.state.Load())
}

// Run polls until ctx is cancelled, which is a clean exit and returns nil.
// It returns an error when the subscription closes or a dead-letter publish
// keeps failing; the message in flight is then left uncommitted.
func (w *Worker[T]) Run(ctx context.Context) error {
	defer w.setState(StateStopped)
	w.logger.Info("worker started")

	fetchBackoff := w.cfg.Retry.newBackOff()
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopping")
			return nil
		}

		w.setState(StatePolling)
		delivery, err := w.sub.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopping")
				return nil
			}
			if errors.Is(err, ErrSubscriptionClosed) {
				return err
			}
			wait := fetchBackoff.NextBackOff()
			w.logger.Warn("fetch failed", zap.Duration("retry_in", wait), zap.Error(err))
			if sleepContext(ctx, wait) != nil {
				return nil
			}
			continue
		}
		fetchBackoff.Reset()

		if err := w.process(ctx, delivery); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopping, in-flight message left uncommitted",
					zap.String("delivery_id", delivery.DeliveryID))
				return nil
			}
			return err
		}
	}
}

func (w *Worker[T]) process(ctx context.Context, d *Delivery) error {
	w.setState(StateProcessing)
	log := w.logger.With(zap.String("delivery_id", d.DeliveryID))

	envelope, payload, err := decode[T](d.Body, w.cfg.MessageType)
	if err != nil {
		log.Error("message cannot be decoded", zap.Error(err))
		return w.deadLetter(ctx, d, err, 0)
	}

	meta := Metadata{
		MessageType: envelope.MessageType,
		OccurredAt:  envelope.OccurredAt,
		Topic:       d.Topic,
		DeliveryID:  d.DeliveryID,
		Redelivered: d.Redelivered,
	}

	retry := w.cfg.Retry.newBackOff()
	for attempt := 1; ; attempt++ {
		meta.Attempt = attempt
		err = w.handler(ctx, payload, meta)
		if err == nil {
			w.commit(ctx, d, log)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		retries := attempt - 1
		if !IsRetryable(err) || retries >= w.cfg.Retry.MaxRetries {
			log.Error("handler failed permanently",
				zap.Int("attempts", attempt),
				zap.Bool("retryable", IsRetryable(err)),
				zap.Error(err))
			return w.deadLetter(ctx, d, err, retries)
		}

		wait := retry.NextBackOff()
		log.Warn("handler failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err))
		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}
}

// deadLetter forwards the original body plus failure metadata, then commits so
// the message is not redelivered.
func (w *Worker[T]) deadLetter(ctx context.Context, d *Delivery, cause error, retries int) error {
	w.setState(StateDeadLettering)

	headers := cloneHeaders(d.Headers, 5)
	headers[HeaderDLQReason] = cause.Error()
	headers[HeaderDLQErrorCode] = string(domain.CodeOf(cause))
	headers[HeaderDLQRetryCount] = strconv.Itoa(retries)
	headers[HeaderDLQOriginalTopic] = w.originalTopic(d)
	headers[HeaderDLQFailedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	msg := Message{
		ID:      d.ID,
		Topic:   w.cfg.DeadLetterTopic,
		Body:    d.Body,
		Headers: headers,
	}

	backoff := w.cfg.Retry.newBackOff()
	var err error
	for attempt := 0; attempt <= w.cfg.Retry.MaxRetries; attempt++ {
		if err = w.deadLetters.Publish(ctx, msg); err == nil {
			w.logger.Warn("message dead-lettered",
				zap.String("delivery_id", d.DeliveryID),
				zap.String("dead_letter_topic", w.cfg.DeadLetterTopic),
				zap.Int("retry_count", retries),
				zap.String("reason", cause.Error()))
			w.commit(ctx, d, w.logger)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if sleepErr := sleepContext(ctx, backoff.NextBackOff()); sleepErr != nil {
			return sleepErr
		}
	}
	return fmt.Errorf("dead-letter delivery %s to %s: %w", d.DeliveryID, w.cfg.DeadLetterTopic, err)
}

// commit failures are logged only: the message stays pending and is
// redelivered, which at-least-once handling tolerates.
func (w *Worker[T]) commit(ctx context.Context, d *Delivery, log *zap.Logger) {
	w.setState(StateCommitting)
	if err := d.Commit(ctx); err != nil {
		log.Error("commit failed, message will be redelivered",
			zap.String("delivery_id", d.DeliveryID),
			zap.Error(err))
		return
	}
	log.Debug("message committed", zap.String("delivery_id", d.DeliveryID))
}

func (w *Worker[T]) originalTopic(d *Delivery) string {
	if d.Topic != "" {
		return d.Topic
	}
	return w.cfg.Topic
}

func (w *Worker[T]) setState(s State) {
	prev := State(w.state.Swap(int32(s)))
	if prev != s {
		w.logger.Debug("worker state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

func decode[T any](body []byte, expectedType string) (domain.RawEnvelope, T, error) {
	var (
		envelope domain.RawEnvelope
		payload  T
	)
	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope, payload, domain.NewDeserializationError(err)
	}
	if expectedType != "" && envelope.MessageType != expectedType {
		return envelope, payload, domain.NewDeserializationError(
			fmt.Errorf("unexpected message type %q", envelope.MessageType))
	}
	if len(envelope.Payload) == 0 || string(envelope.Payload) == "null" {
		return envelope, payload, domain.NewDeserializationError(errors.New("missing payload"))
	}
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return envelope, payload, domain.NewDeserializationError(err)
	}
	return envelope, payload, nil
}
