package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"TradeSim/internal/domain/repository"
	"TradeSim/internal/handler/api"
	internalrepo "TradeSim/internal/repository"
	"TradeSim/internal/service/finnhub"
	"TradeSim/internal/service/ratelimit"
	"TradeSim/internal/usecase"
	"TradeSim/pkg/cache"
	pkgch "TradeSim/pkg/clickhouse"
	"TradeSim/pkg/config"
	xhttp "TradeSim/pkg/http"
	pkgkafka "TradeSim/pkg/kafka"
	applogger "TradeSim/pkg/logger"
	"TradeSim/pkg/metrics"
	"TradeSim/pkg/server"
	"TradeSim/pkg/sqlite"
)

const reportTTL = 24 * time.Hour

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideCache returns a memory cache, or a memory+Redis layered cache when
// Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		c := cache.NewMemoryCache(cache.WithMemoryMaxSize(2000))
		return c, func() { _ = c.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("host", cfg.Redis.Host), applogger.Int("port", cfg.Redis.Port))
	c := cache.NewLayeredCache(rc, 2000, time.Minute)
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePriceHistory selects the bar source and wraps it in the cache.
func ProvidePriceHistory(cfg *config.Config, c cache.Service, l *applogger.Logger) (repository.PriceHistory, func(), error) {
	var (
		src     repository.PriceHistory
		cleanup = func() {}
	)
	switch cfg.MarketData.Provider {
	case "clickhouse":
		ch, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		src = internalrepo.NewCHPriceHistory(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l)
		cleanup = func() {
			if err := ch.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
	default:
		fh := cfg.MarketData.Finnhub
		if fh.APIKey == "" {
			l.Warn("finnhub api key is empty, candle requests will be rejected")
		}
		src = finnhub.New(finnhub.Config{
			APIKey:            fh.APIKey,
			BaseURL:           fh.BaseURL,
			Timeout:           fh.Timeout,
			RequestsPerSecond: fh.RequestsPerSecond,
			Burst:             fh.Burst,
		}, l)
	}
	l.Info("price history ready", applogger.String("provider", cfg.MarketData.Provider))
	return internalrepo.NewCachedPriceHistory(src, c, cfg.MarketData.CacheTTL, l), cleanup, nil
}

// ProvideClickHouseClient connects to ClickHouse and ensures the bars table.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.DailyBarsSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePolicyStore opens the configured policy backend.
func ProvidePolicyStore(cfg *config.Config, c cache.Service, l *applogger.Logger) (repository.PolicyStore, func(), error) {
	switch cfg.PolicyStore.Backend {
	case "sqlite":
		db, err := sqlite.Open(cfg.PolicyStore.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("policy sqlite: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := internalrepo.NewSQLitePolicyStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("policy sqlite: %w", err)
		}
		l.Info("policy store ready", applogger.String("backend", "sqlite"), applogger.String("path", cfg.PolicyStore.SQLitePath))
		return store, func() { _ = db.Close() }, nil
	case "redis":
		l.Info("policy store ready", applogger.String("backend", "redis"))
		return internalrepo.NewCachePolicyStore(c), func() {}, nil
	default:
		store, err := internalrepo.NewFilePolicyStore(cfg.PolicyStore.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("policy dir: %w", err)
		}
		l.Info("policy store ready", applogger.String("backend", "file"), applogger.String("dir", cfg.PolicyStore.Dir))
		return store, func() {}, nil
	}
}

// ProvideReportPublisher returns a Kafka publisher when Kafka is enabled.
func ProvideReportPublisher(cfg *config.Config, l *applogger.Logger) (repository.ReportPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopReportPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka report publisher ready", applogger.String("topic", cfg.Kafka.Topic))
	pub := internalrepo.NewKafkaReportPublisher(producer)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideReportCache keeps the latest report per symbol for the chart view.
func ProvideReportCache(c cache.Service) repository.ReportCache {
	return internalrepo.NewCacheReportStore(c, reportTTL)
}

// ProvideLocker serializes load-train-save per symbol through the cache.
func ProvideLocker(cfg *config.Config, c cache.Service, l *applogger.Logger) repository.Locker {
	return internalrepo.NewCacheLocker(c, cfg.Simulation.LockTTL, cfg.Simulation.LockWait, l)
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideSimulator creates the simulation use case.
func ProvideSimulator(
	cfg *config.Config,
	prices repository.PriceHistory,
	policies repository.PolicyStore,
	locker repository.Locker,
	pub repository.ReportPublisher,
	reports repository.ReportCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Simulator {
	return usecase.NewSimulator(prices, policies, usecase.NewSimulatorConfig(cfg.Simulation),
		usecase.WithLocker(locker),
		usecase.WithPublisher(pub),
		usecase.WithReportCache(reports),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	)
}

// ProvideRateLimiter creates the per-client limiter for simulate routes.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RequestsPerMinute, cfg.Server.Burst)
}

// ProvideHTTPHandler creates the simulation API handler.
func ProvideHTTPHandler(l *applogger.Logger, sim *usecase.Simulator, limiter *ratelimit.Limiter) xhttp.Handler {
	return api.NewSimulateEchoHandler(l, sim, limiter)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithAddress(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if !cfg.Metrics.Disabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, prometheus.DefaultRegisterer, prometheus.DefaultGatherer))
	} else {
		opts = append(opts, xhttp.WithMetrics("", nil, nil))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application.
func ProvideApp(srv *xhttp.Server, l *applogger.Logger) *server.App {
	return server.New(srv, l)
}
