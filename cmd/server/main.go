package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/moneytracker/api/handler"
	"github.com/fastygo/moneytracker/internal/config"
	"github.com/fastygo/moneytracker/internal/infrastructure/buffer"
	"github.com/fastygo/moneytracker/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/moneytracker/internal/infrastructure/postgres"
	"github.com/fastygo/moneytracker/internal/infrastructure/rabbitmq"
	redisInfra "github.com/fastygo/moneytracker/internal/infrastructure/redis"
	"github.com/fastygo/moneytracker/internal/messaging"
	"github.com/fastygo/moneytracker/internal/middleware"
	"github.com/fastygo/moneytracker/internal/router"
	"github.com/fastygo/moneytracker/internal/services"
	"github.com/fastygo/moneytracker/internal/services/lifecycle"
	"github.com/fastygo/moneytracker/pkg/httpcontext"
	"github.com/fastygo/moneytracker/pkg/logger"
	"github.com/fastygo/moneytracker/repository"
	"github.com/fastygo/moneytracker/repository/memory"
	"github.com/fastygo/moneytracker/repository/postgres"
	redisRepo "github.com/fastygo/moneytracker/repository/redis"
	categoryUC "github.com/fastygo/moneytracker/usecase/category"
	personUC "github.com/fastygo/moneytracker/usecase/person"
	summaryUC "github.com/fastygo/moneytracker/usecase/summary"
	transactionUC "github.com/fastygo/moneytracker/usecase/transaction"
)

type repositories struct {
	transactions repository.TransactionRepository
	categories   repository.CategoryRepository
	persons      repository.PersonRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName + "-server",
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx := context.Background()
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	checks := map[string]monitor.Pinger{}

	repos := repositories{
		transactions: memory.NewTransactionRepository(),
		categories:   memory.NewCategoryRepository(),
		persons:      memory.NewPersonRepository(),
	}
	if cfg.Storage.Driver == config.StoragePostgres {
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		checks["postgres"] = monitor.PingFunc(pool.Ping)
		repos = repositories{
			transactions: postgres.NewTransactionRepository(pool),
			categories:   postgres.NewCategoryRepository(pool),
			persons:      postgres.NewPersonRepository(pool),
		}
	} else {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
	}

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})
	checks["redis"] = redisInfra.Pinger{Client: redisClient}

	var brokerPublisher messaging.Publisher
	switch cfg.Broker.Driver {
	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.Dial(cfg.Broker.URL, zapLogger)
		if err != nil {
			zapLogger.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		if err := declareTopology(conn, cfg); err != nil {
			zapLogger.Fatal("rabbitmq topology failed", zap.Error(err))
		}
		publisher := rabbitmq.NewPublisher(conn.ConfirmChannel, cfg.Broker.Exchange, cfg.Broker.ConfirmTimeout, zapLogger)
		manager.Register("rabbitmq", func(ctx context.Context) error {
			_ = publisher.Close()
			return conn.Close()
		})
		checks[cfg.Broker.Driver] = conn
		brokerPublisher = publisher
	case config.BrokerRedis:
		brokerPublisher = redisInfra.NewStreamPublisher(redisClient, cfg.Broker.StreamMaxLen)
		checks[cfg.Broker.Driver] = redisInfra.Pinger{Client: redisClient}
	}

	breaker := messaging.NewBreakerPublisher(brokerPublisher, messaging.BreakerConfig{
		ConsecutiveFailures: cfg.Broker.BreakerFailures,
		OpenTimeout:         cfg.Broker.BreakerTimeout,
	}, zapLogger)
	producer := messaging.NewProducer(breaker, cfg.Broker.PublishTimeout, zapLogger)

	bufferStore, err := buffer.Open(cfg.Buffer.Path, cfg.Buffer.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	var relay *services.EventRelay
	mon := monitor.New(checks, cfg.Broker.Driver, monitor.SizeFunc(func() int { return relay.Size() }),
		cfg.Context.MonitorInterval, zapLogger)
	relay = services.NewEventRelay(bufferStore, mon, producer, zapLogger, services.RelayConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  cfg.Buffer.BatchSize,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  cfg.Buffer.Retention,
	})

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})
	relay.Start()
	manager.Register("event_relay", func(ctx context.Context) error {
		relay.Stop(ctx)
		return nil
	})

	transactionUseCase := transactionUC.New(
		repos.transactions,
		repos.categories,
		repos.persons,
		producer,
		zapLogger,
		transactionUC.WithTopic(cfg.Topics.TransactionCreated),
		transactionUC.WithBuffer(services.NewEventBuffer(relay)),
	)
	categoryUseCase := categoryUC.New(repos.categories, repos.transactions, zapLogger)
	personUseCase := personUC.New(repos.persons, repos.transactions, zapLogger)
	summaryUseCase := summaryUC.New(redisRepo.NewSummaryRepository(redisClient, cfg.Redis.SummaryTTL), repos.categories, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Transaction: apiHandler.NewTransactionHandler(transactionUseCase, ctxAdapter, zapLogger),
		Category:    apiHandler.NewCategoryHandler(categoryUseCase, ctxAdapter, zapLogger),
		Person:      apiHandler.NewPersonHandler(personUseCase, ctxAdapter, zapLogger),
		Summary:     apiHandler.NewSummaryHandler(summaryUseCase, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	r := router.New(handlers, middleware.AccessLog(zapLogger))

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	manager.Go("http_server", func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			zapLogger.Info("server started", zap.String("address", cfg.Address()))
			errCh <- server.ListenAndServe(cfg.Address())
		}()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return nil
		}
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Run(appCtx); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
	}
}

// declareTopology binds the worker group's queue and the dead-letter queue up
// front so events published before the first worker starts are kept.
func declareTopology(conn *rabbitmq.Connection, cfg *config.Config) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return rabbitmq.DeclareTopology(ch, cfg.Broker.Exchange,
		rabbitmq.Binding{
			Queue: rabbitmq.QueueName(cfg.Consumer.Group, cfg.Topics.TransactionCreated),
			Topic: cfg.Topics.TransactionCreated,
		},
		rabbitmq.Binding{
			Queue: rabbitmq.QueueName(cfg.Consumer.Group, cfg.Topics.DeadLetter),
			Topic: cfg.Topics.DeadLetter,
		},
	)
}
