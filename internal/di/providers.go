package di

import (
	"context"
	"fmt"
	"time"

	drepo "github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/repository"
	internalrepo "github.com/benitorhuang-svg/tw-stock-app-sub001/internal/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/usecase"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/cache"
	pkgch "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/clickhouse"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/config"
	pkgkafka "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/kafka"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/metrics"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/server"
)

// ProvideClickHouseClient creates the ClickHouse client and ensures the
// contract tables (plus their staging twins) exist.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, schemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideMarketStore creates the read-side ClickHouse store.
func ProvideMarketStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) drepo.MarketStore {
	return internalrepo.NewCHMarketStore(client, cfg.ClickHouse.Database, l)
}

// ProvideFeatureStore creates the write-side ClickHouse store.
func ProvideFeatureStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) drepo.FeatureStore {
	return internalrepo.NewCHFeatureStore(client, cfg.ClickHouse.Database, l)
}

// ProvideMetricsRecorder creates the Prometheus recorder.
func ProvideMetricsRecorder() *metrics.Recorder {
	return metrics.New()
}

// ProvideMetrics exposes the recorder through the domain interface.
func ProvideMetrics(r *metrics.Recorder) drepo.Metrics {
	return r
}

// ProvideCache creates the optional Redis cache used for refresh markers and
// the run lock. Disabled Redis yields a nil Service; the engine nil-checks.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideNotifier creates the optional Kafka refresh notifier.
func ProvideNotifier(cfg *config.Config) (drepo.Notifier, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopNotifier{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	notifier := internalrepo.NewKafkaNotifier(producer, cfg.Kafka.Topic)
	return notifier, func() { _ = notifier.Close() }, nil
}

// ProvideIndicatorJob creates the per-symbol indicator phase.
func ProvideIndicatorJob(market drepo.MarketStore, store drepo.FeatureStore, m drepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.IndicatorJob {
	return usecase.NewIndicatorJob(market, store, m, l, cfg.Engine.Workers)
}

// ProvideChipJob creates the chip concentration phase.
func ProvideChipJob(market drepo.MarketStore, store drepo.FeatureStore, m drepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.ChipJob {
	return usecase.NewChipJob(market, store, m, l, cfg.Engine.Workers, cfg.Engine.ChipWindow)
}

// ProvideBreadthJob creates the market breadth phase.
func ProvideBreadthJob(market drepo.MarketStore, store drepo.FeatureStore, m drepo.Metrics, l *applogger.Logger) *usecase.BreadthJob {
	return usecase.NewBreadthJob(market, store, m, l)
}

// ProvideEngine wires the phases into the full run.
func ProvideEngine(
	ind *usecase.IndicatorJob,
	chip *usecase.ChipJob,
	br *usecase.BreadthJob,
	notifier drepo.Notifier,
	cacheSvc cache.Service,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.Engine {
	return usecase.NewEngine(ind, chip, br, notifier, cacheSvc, m, l)
}

// ProvideApp creates the batch application.
func ProvideApp(cfg *config.Config, engine *usecase.Engine, recorder *metrics.Recorder, l *applogger.Logger) *server.App {
	return server.New(cfg, engine, recorder, l)
}
