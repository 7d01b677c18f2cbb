package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/internal/infrastructure/buffer"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// RawPublisher republishes an envelope that was already serialized.
type RawPublisher interface {
	PublishRaw(ctx context.Context, topic, messageType string, occurredAt time.Time, body []byte) error
}

// RelayConfig controls how frequently the outbox is drained and how long
// undeliverable events are kept.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventRelay publishes events that were parked in the outbox while the broker
// was unreachable.
type EventRelay struct {
	store     *buffer.Store
	monitor   ConnectionHealth
	publisher RawPublisher
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RelayConfig

	mu sync.Mutex
}

func NewEventRelay(
	store *buffer.Store,
	monitor ConnectionHealth,
	publisher RawPublisher,
	logger *zap.Logger,
	cfg RelayConfig,
) *EventRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &EventRelay{
		store:     store,
		monitor:   monitor,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *EventRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("event relay started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (r *EventRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("event relay stopped")
}

// Park stores an item for a later drain.
func (r *EventRelay) Park(item buffer.Item) error {
	if r == nil || r.store == nil {
		return fmt.Errorf("event relay not configured")
	}
	if err := r.store.Enqueue(item); err != nil {
		return fmt.Errorf("park event %s: %w", item.ID, err)
	}
	r.logger.Warn("event parked in outbox",
		zap.String("event_id", item.ID),
		zap.String("topic", item.Topic),
		zap.String("message_type", item.MessageType))
	return nil
}

// Drain publishes one batch in priority order. The batch stops at the first
// failed publish so later events do not overtake earlier ones.
func (r *EventRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if removed, err := r.store.Cleanup(time.Now().UTC().Add(-r.cfg.Retention)); err != nil {
		r.logger.Warn("outbox cleanup failed", zap.Error(err))
	} else if removed > 0 {
		r.logger.Error("expired events removed from outbox", zap.Int("count", removed), zap.Duration("retention", r.cfg.Retention))
	}

	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping outbox drain (broker offline)")
		return nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := r.publisher.PublishRaw(ctx, item.Topic, item.MessageType, item.OccurredAt, item.Data)
		if err != nil {
			if requeueErr := r.store.Requeue(item, err); requeueErr != nil {
				r.logger.Error("failed to requeue outbox event", zap.String("event_id", item.ID), zap.Error(requeueErr))
			}
			fields := []zap.Field{
				zap.String("event_id", item.ID),
				zap.String("topic", item.Topic),
				zap.Int("retries", item.Retries+1),
				zap.Error(err),
			}
			if item.Retries+1 >= r.cfg.MaxRetries {
				r.logger.Error("outbox event still undelivered", fields...)
			} else {
				r.logger.Warn("outbox publish failed", fields...)
			}
			return nil
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge relayed event", zap.String("event_id", item.ID), zap.Error(err))
			continue
		}
		r.logger.Info("outbox event relayed", zap.String("event_id", item.ID), zap.String("topic", item.Topic))
	}
	return nil
}

// Size returns the number of parked events.
func (r *EventRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}
