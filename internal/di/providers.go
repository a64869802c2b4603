package di

import (
	"context"
	"fmt"
	"time"

	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/internal/handler/api"
	internalrepo "RangePulse/internal/repository"
	"RangePulse/internal/usecase"
	"RangePulse/pkg/cache"
	pkgch "RangePulse/pkg/clickhouse"
	"RangePulse/pkg/config"
	xhttp "RangePulse/pkg/http"
	pkgkafka "RangePulse/pkg/kafka"
	applogger "RangePulse/pkg/logger"
	"RangePulse/pkg/metrics"
	"RangePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCache creates the cache service: layered memory+Redis when Redis is
// enabled, in-memory only otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redis, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix("rangepulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redis), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle store.
func ProvideCandleStore(chClient *pkgch.Client, log *applogger.Logger) domrepo.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideSignalStore creates the ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client) domrepo.SignalStore {
	return internalrepo.NewCHSignalStore(chClient)
}

// ProvideSignalPublisher creates the Kafka publisher, or a noop one when
// Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (domrepo.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopSignalPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideScanUseCase creates the scan pipeline use case.
func ProvideScanUseCase(
	cfg *config.Config,
	store domrepo.CandleStore,
	signals domrepo.SignalStore,
	pub domrepo.SignalPublisher,
	cacheSvc cache.Service,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(cfg, store, signals, pub, cacheSvc, m, log)
}

// ProvideBacktestUseCase creates the backtest use case.
func ProvideBacktestUseCase(cfg *config.Config, store domrepo.CandleStore, m domrepo.Metrics, log *applogger.Logger) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(cfg, store, m, log)
}

// ProvideCandlesUseCase creates the candles use case.
func ProvideCandlesUseCase(store domrepo.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideScanner creates the periodic scanner.
func ProvideScanner(cfg *config.Config, scan *usecase.ScanUseCase, log *applogger.Logger) *usecase.PeriodicScanner {
	return usecase.NewPeriodicScanner(cfg, scan, log)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	scan *usecase.ScanUseCase,
	bt *usecase.BacktestUseCase,
	candles *usecase.CandlesUseCase,
	signals domrepo.SignalStore,
) xhttp.Handler {
	return api.NewSignalsHandler(log, scan, bt, candles, signals)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	scanner *usecase.PeriodicScanner,
	pub domrepo.SignalPublisher,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, scanner, pub, chClient, cacheSvc, handler)
}
