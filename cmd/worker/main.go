package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/internal/config"
	"github.com/fastygo/moneytracker/internal/infrastructure/rabbitmq"
	redisInfra "github.com/fastygo/moneytracker/internal/infrastructure/redis"
	"github.com/fastygo/moneytracker/internal/messaging"
	"github.com/fastygo/moneytracker/internal/services/lifecycle"
	"github.com/fastygo/moneytracker/pkg/logger"
	redisRepo "github.com/fastygo/moneytracker/repository/redis"
	summaryUC "github.com/fastygo/moneytracker/usecase/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName + "-worker",
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx := context.Background()
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	summaries := summaryUC.New(redisRepo.NewSummaryRepository(redisClient, cfg.Redis.SummaryTTL), nil, zapLogger)
	handler := func(ctx context.Context, event domain.TransactionCreated, meta messaging.Metadata) error {
		return summaries.ApplyTransactionCreated(ctx, event)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}

	var (
		deadLetters messaging.Publisher
		subscribe   func(ctx context.Context, consumer string) (messaging.Subscription, error)
	)
	switch cfg.Broker.Driver {
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Dial(cfg.Broker.URL, zapLogger)
		if err != nil {
			zapLogger.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		if err := declareDeadLetterQueue(conn, cfg); err != nil {
			zapLogger.Fatal("rabbitmq topology failed", zap.Error(err))
		}
		publisher := rabbitmq.NewPublisher(conn.ConfirmChannel, cfg.Broker.Exchange, cfg.Broker.ConfirmTimeout, zapLogger)
		manager.Register("rabbitmq", func(ctx context.Context) error {
			_ = publisher.Close()
			return conn.Close()
		})
		deadLetters = publisher
		subscribe = func(_ context.Context, consumer string) (messaging.Subscription, error) {
			ch, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return rabbitmq.Subscribe(ch, rabbitmq.SubscriptionConfig{
				Exchange: cfg.Broker.Exchange,
				Topic:    cfg.Topics.TransactionCreated,
				Group:    cfg.Consumer.Group,
				Consumer: consumer,
			})
		}
	case config.BrokerRedis:
		deadLetters = redisInfra.NewStreamPublisher(redisClient, cfg.Broker.StreamMaxLen)
		subscribe = func(ctx context.Context, consumer string) (messaging.Subscription, error) {
			return redisInfra.NewStreamSubscription(ctx, redisClient, redisInfra.StreamSubscriptionConfig{
				Stream:   cfg.Topics.TransactionCreated,
				Group:    cfg.Consumer.Group,
				Consumer: consumer,
				Block:    cfg.Consumer.PollTimeout,
			})
		}
	}

	for i := 0; i < cfg.Consumer.Concurrency; i++ {
		name := fmt.Sprintf("%s-%d", hostname, i)
		sub, err := subscribe(appCtx, name)
		if err != nil {
			zapLogger.Fatal("subscribe failed", zap.String("consumer", name), zap.Error(err))
		}
		manager.Register("subscription "+name, func(ctx context.Context) error {
			return sub.Close()
		})

		worker := messaging.NewWorker(sub, deadLetters, handler, messaging.WorkerConfig{
			Name:            name,
			Topic:           cfg.Topics.TransactionCreated,
			Group:           cfg.Consumer.Group,
			MessageType:     domain.MessageTypeTransactionCreated,
			DeadLetterTopic: cfg.Topics.DeadLetter,
			Retry: messaging.RetryPolicy{
				MaxRetries:      cfg.Consumer.MaxRetries,
				InitialInterval: cfg.Consumer.InitialBackoff,
				MaxInterval:     cfg.Consumer.MaxBackoff,
			},
		}, zapLogger)
		manager.Go("worker "+name, worker.Run)
	}

	if err := manager.Run(appCtx); err != nil {
		zapLogger.Error("worker stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// declareDeadLetterQueue keeps dead-lettered messages in a durable queue even
// when the server has not declared it yet.
func declareDeadLetterQueue(conn *rabbitmq.Connection, cfg *config.Config) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return rabbitmq.DeclareTopology(ch, cfg.Broker.Exchange, rabbitmq.Binding{
		Queue: rabbitmq.QueueName(cfg.Consumer.Group, cfg.Topics.DeadLetter),
		Topic: cfg.Topics.DeadLetter,
	})
}
