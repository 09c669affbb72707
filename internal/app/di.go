package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/config"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/metrics"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	memdispatch "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/memory"
	pgdispatch "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/postgres"
	memstock "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/stock/memory"
	mongostock "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/stock/mongo"
	pgstock "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/stock/postgres"
	approvalconsumer "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/consumer/approval"
	dispatchsvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/dispatch"
	ordersvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/order"
	dispatchproducer "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/producer/dispatch"
	stocksvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/stock"
	dispatchhttp "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/dispatch/v1"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/health"
	orderhttp "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/order/v1"
	stockhttp "github.com/aasmaanchaalak/inventoryapp-sub001/internal/transport/http/stock/v1"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/closer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/db/migrator"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/consumer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/middleware"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/producer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

const (
	approvalRetryAttempts = 3
	approvalRetryBackoff  = 200 * time.Millisecond
)

type Converter interface {
	dispatchproducer.Converter
	approvalconsumer.Converter
}

type DispatchRepository interface {
	dispatchsvc.DispatchStore
	CreateOrder(ctx context.Context, ord *model.Order) error
}

type OrderService interface {
	orderhttp.OrderService
	approvalconsumer.OrderDecider
}

type StockService interface {
	stockhttp.StockService
	dispatchsvc.StockLedger
	stocksvc.Seeder
}

type ApprovalConsumer interface {
	RunApprovalConsume(ctx context.Context) error
}

type Registrar interface {
	Register(r chi.Router)
}

type di struct {
	dbPool   *pgxpool.Pool
	migrator *migrator.Migrator

	mongo           *mongo.Client
	stockCollection *mongo.Collection

	redis  *redis.Client
	locker lock.Locker

	dispatchRepository DispatchRepository
	stockRepository    stocksvc.StockRepository

	consumerGroup         sarama.ConsumerGroup
	orderApprovalConsumer kafka.Consumer
	approvalConsumer      ApprovalConsumer

	syncProducer             sarama.SyncProducer
	dispatchExecutedProducer kafka.Producer
	eventPublisher           dispatchsvc.EventPublisher

	conv Converter

	registry *prometheus.Registry
	metrics  *metrics.Recorder

	stockService    StockService
	orderService    OrderService
	dispatchService dispatchhttp.DispatchService

	orderHandler    Registrar
	dispatchHandler Registrar
	stockHandler    Registrar
	healthHandler   HealthHandler

	router *chi.Mux
}

type HealthHandler interface {
	Add(name string, check health.Check)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Ready(w http.ResponseWriter, r *http.Request)
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
		d.HealthHandler(ctx).Add("postgres", pool.Ping)
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) MongoDB(ctx context.Context) *mongo.Client {
	if d.mongo == nil {
		mongoClient, err := mongo.Connect(
			options.Client().ApplyURI(config.C().Mongo.DSN()),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create mongodb client: %v\n", err))
		}
		closer.AddNamed("Mongo Client",
			func(ctx context.Context) error {
				return mongoClient.Disconnect(ctx)
			})

		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			panic(fmt.Sprintf("failed to ping database: %v\n", err))
		}

		d.mongo = mongoClient
		d.HealthHandler(ctx).Add("mongo", func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		})
	}

	return d.mongo
}

func (d *di) StockCollection(ctx context.Context) *mongo.Collection {
	if d.stockCollection == nil {
		d.stockCollection = d.MongoDB(ctx).
			Database(config.C().Mongo.DatabaseName()).
			Collection(config.C().Mongo.StockCollection())

		if err := mongostock.EnsureIndexes(ctx, d.stockCollection); err != nil {
			panic(fmt.Sprintf("failed to ensure indexes: %v\n", err))
		}
	}

	return d.stockCollection
}

func (d *di) Redis(ctx context.Context) *redis.Client {
	if d.redis == nil {
		cfg := config.C().Redis

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Address(),
			Password: cfg.Password(),
			DB:       cfg.DB(),
		})
		closer.AddNamed("Redis Client",
			func(ctx context.Context) error {
				return client.Close()
			})

		if err := client.Ping(ctx).Err(); err != nil {
			panic(fmt.Sprintf("failed to ping redis: %v\n", err))
		}

		d.redis = client
		d.HealthHandler(ctx).Add("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	return d.redis
}

func (d *di) Locker(ctx context.Context) lock.Locker {
	if d.locker == nil {
		switch config.C().Dispatch.OrderLockDriver() {
		case config.DriverRedis:
			d.locker = lock.NewRedisLocker(
				d.Redis(ctx),
				config.C().Redis.LockPrefix(),
				config.C().Redis.LockTTL(),
			)
		default:
			d.locker = lock.NewKeyedMutex()
		}
	}

	return d.locker
}

func (d *di) DispatchRepository(ctx context.Context) DispatchRepository {
	if d.dispatchRepository == nil {
		switch config.C().Dispatch.StorageDriver() {
		case config.DriverPostgres:
			d.dispatchRepository = pgdispatch.NewDispatchRepository(d.DBPool(ctx))
		default:
			d.dispatchRepository = memdispatch.NewDispatchRepository()
		}
	}

	return d.dispatchRepository
}

func (d *di) StockRepository(ctx context.Context) stocksvc.StockRepository {
	if d.stockRepository == nil {
		switch config.C().Dispatch.StockLedgerDriver() {
		case config.DriverPostgres:
			d.stockRepository = pgstock.NewStockRepository(d.DBPool(ctx))
		case config.DriverMongo:
			d.stockRepository = mongostock.NewStockRepository(d.StockCollection(ctx))
		default:
			d.stockRepository = memstock.NewStockRepository()
		}
	}

	return d.stockRepository
}

// UsesPostgres reports whether any configured backend needs migrations.
func (d *di) UsesPostgres() bool {
	cfg := config.C().Dispatch
	return cfg.StorageDriver() == config.DriverPostgres || cfg.StockLedgerDriver() == config.DriverPostgres
}

func (d *di) KafkaConverter(_ context.Context) Converter {
	if d.conv == nil {
		d.conv = converter.NewKafkaConverter()
	}

	return d.conv
}

func (d *di) ConsumerGroup(_ context.Context) sarama.ConsumerGroup {
	if d.consumerGroup == nil {
		cfg := config.C()

		consumerGroup, err := sarama.NewConsumerGroup(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ConsumerGroupID(),
			cfg.Kafka.OrderApprovalConsumerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create consumer group: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka consumer group", func(ctx context.Context) error {
			return consumerGroup.Close()
		})

		d.consumerGroup = consumerGroup
	}

	return d.consumerGroup
}

func (d *di) OrderApprovalConsumer(ctx context.Context) kafka.Consumer {
	if d.orderApprovalConsumer == nil {
		d.orderApprovalConsumer = consumer.NewConsumer(
			d.ConsumerGroup(ctx),
			[]string{
				config.C().Kafka.OrderApprovalTopic(),
			},
			logger.L(),
			middleware.Recovery(logger.L()),
			middleware.Logging(logger.L()),
			middleware.Retry(logger.L(), approvalRetryAttempts, approvalRetryBackoff),
		)
	}

	return d.orderApprovalConsumer
}

func (d *di) ApprovalConsumer(ctx context.Context) ApprovalConsumer {
	if d.approvalConsumer == nil {
		d.approvalConsumer = approvalconsumer.NewApprovalConsumer(
			d.OrderApprovalConsumer(ctx),
			d.KafkaConverter(ctx),
			d.OrderService(ctx),
		)
	}

	return d.approvalConsumer
}

func (d *di) SyncProducer(_ context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.DispatchExecutedProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) DispatchExecutedProducer(ctx context.Context) kafka.Producer {
	if d.dispatchExecutedProducer == nil {
		d.dispatchExecutedProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.DispatchExecutedTopic(),
			logger.L(),
		)
	}

	return d.dispatchExecutedProducer
}

// EventPublisher is nil when Kafka is disabled; the dispatch service then skips events.
func (d *di) EventPublisher(ctx context.Context) dispatchsvc.EventPublisher {
	if d.eventPublisher == nil && config.C().Kafka.Enabled() {
		d.eventPublisher = dispatchproducer.NewDispatchProducer(
			d.DispatchExecutedProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.eventPublisher
}

func (d *di) Registry(_ context.Context) *prometheus.Registry {
	if d.registry == nil {
		d.registry = prometheus.NewRegistry()
	}

	return d.registry
}

func (d *di) Metrics(ctx context.Context) *metrics.Recorder {
	if d.metrics == nil {
		d.metrics = metrics.New(d.Registry(ctx))
	}

	return d.metrics
}

func (d *di) StockService(ctx context.Context) StockService {
	if d.stockService == nil {
		d.stockService = stocksvc.NewStockService(
			d.StockRepository(ctx),
			d.Metrics(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.stockService
}

func (d *di) OrderService(ctx context.Context) OrderService {
	if d.orderService == nil {
		d.orderService = ordersvc.NewOrderService(
			d.DispatchRepository(ctx),
			d.Locker(ctx),
			d.Metrics(ctx),
			config.C().Dispatch.OrderLockTimeout(),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.orderService
}

func (d *di) DispatchService(ctx context.Context) dispatchhttp.DispatchService {
	if d.dispatchService == nil {
		d.dispatchService = dispatchsvc.NewDispatchService(
			d.DispatchRepository(ctx),
			d.StockService(ctx),
			d.Locker(ctx),
			d.EventPublisher(ctx),
			d.Metrics(ctx),
			dispatchsvc.Config{
				NumberPrefix:   config.C().Dispatch.NumberPrefix(),
				LockTimeout:    config.C().Dispatch.OrderLockTimeout(),
				ReadDBTimeout:  config.C().Server.DBReadTimeout(),
				WriteDBTimeout: config.C().Server.DBWriteTimeout(),
			},
		)
	}

	return d.dispatchService
}

func (d *di) OrderHandler(ctx context.Context) Registrar {
	if d.orderHandler == nil {
		d.orderHandler = orderhttp.NewOrderHandler(d.OrderService(ctx))
	}

	return d.orderHandler
}

func (d *di) DispatchHandler(ctx context.Context) Registrar {
	if d.dispatchHandler == nil {
		d.dispatchHandler = dispatchhttp.NewDispatchHandler(d.DispatchService(ctx))
	}

	return d.dispatchHandler
}

func (d *di) StockHandler(ctx context.Context) Registrar {
	if d.stockHandler == nil {
		d.stockHandler = stockhttp.NewStockHandler(d.StockService(ctx))
	}

	return d.stockHandler
}

func (d *di) HealthHandler(_ context.Context) HealthHandler {
	if d.healthHandler == nil {
		d.healthHandler = health.NewHealthHandler(config.C().Server.DBReadTimeout())
	}

	return d.healthHandler
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}
