package main

import (
	"context"

	"github.com/afi0204/electric-porta1/internal/config"
	"github.com/afi0204/electric-porta1/internal/db"
	"github.com/afi0204/electric-porta1/internal/meter"
	"github.com/afi0204/electric-porta1/internal/mq"
	"github.com/afi0204/electric-porta1/internal/query"
	"github.com/afi0204/electric-porta1/internal/repository"
	"github.com/afi0204/electric-porta1/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	meterService *service.MeterService,
) (*mq.Consumer, error) {
	// Consumer context is cancelled on shutdown, before the channel closes.
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Queue:         cfg.RabbitMQ.IngestQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		Exchange:      cfg.RabbitMQ.IngestExchange,
		RoutingKey:    cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger,
		Handler:       meterService.ProcessMessage,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting worker consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return consumer, nil
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideAccumulator creates the consumption accumulator with the configured
// rollover policy
func ProvideAccumulator(cfg *config.Config) *meter.Accumulator {
	return meter.NewAccumulator(cfg.Ingest.RolloverPolicy)
}

// ProvideQueryEngine creates the device listing engine
func ProvideQueryEngine(cfg *config.Config) *query.Engine {
	return query.NewEngine(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
}

// ProvidePublisher creates a new publisher instance
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, cfg.RabbitMQ.WorkerExchange, cfg.RabbitMQ.WorkerRoutingKey, logger)
}

// ProvideMeterService creates the meter service instance
func ProvideMeterService(
	repo *repository.Repository,
	accumulator *meter.Accumulator,
	engine *query.Engine,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *service.MeterService {
	return service.NewMeterService(repo, accumulator, engine, publisher, logger)
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideMQConnection creates a new RabbitMQ connection instance
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}
