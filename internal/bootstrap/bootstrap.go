// Package bootstrap assembles infrastructure clients and application
// services from configuration.  All three binaries (grantscope, apiserver,
// monitor) share this wiring; each picks the pieces it needs.  Optional
// backends (Redis, Kafka, MinIO, OpenSearch) are only opened when their
// configuration is present, and the corresponding service fields stay nil
// otherwise.
package bootstrap

import (
	"context"
	"time"

	"github.com/turtacn/GrantScope/internal/application/competitive"
	"github.com/turtacn/GrantScope/internal/application/monitoring"
	"github.com/turtacn/GrantScope/internal/application/reporting"
	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/redis"
	"github.com/turtacn/GrantScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GrantScope/internal/infrastructure/scraping"
	"github.com/turtacn/GrantScope/internal/infrastructure/search/opensearch"
	"github.com/turtacn/GrantScope/internal/infrastructure/storage/minio"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
)

// Backends holds every constructed client and service.  Nil fields mean the
// backing infrastructure was not configured.
type Backends struct {
	Config *config.Config
	Logger logging.Logger

	Postgres *postgres.Connection
	Redis    *redis.Client
	Kafka    *kafka.Producer
	MinIO    *minio.Client
	Search   *opensearch.Client

	Grants  grant.Repository
	Orgs    organization.Repository
	History history.Repository

	Metrics   *prometheus.Metrics
	Matcher   *scoring.Matcher
	Predictor *success.Predictor
	Models    success.ModelStore
	Registry  *success.Registry
	Analyzer  *competitive.Engine
	Reports   *reporting.Generator
	Exporter  *reporting.Exporter
	Searcher  *opensearch.Searcher
	Indexer   *opensearch.Indexer
	Monitor   *monitoring.Service
}

// Build opens infrastructure connections and wires the application services.
// Postgres is required; everything else is optional.  On error, anything
// already opened is closed before returning.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Backends, error) {
	b := &Backends{Config: cfg, Logger: logger, Metrics: prometheus.New()}

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	b.Postgres = conn
	pool := conn.Pool()
	b.Grants = repositories.NewGrantRepository(pool, logger)
	b.Orgs = repositories.NewOrganizationRepository(pool, logger)
	b.History = repositories.NewApplicationRepository(pool, logger)

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without it", logging.Err(err))
		} else {
			b.Redis = client
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Kafka = producer
	}
	if cfg.MinIO.Endpoint != "" {
		client, err := minio.NewClient(ctx, cfg.MinIO, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.MinIO = client
	}
	if len(cfg.OpenSearch.Addresses) > 0 {
		client, err := opensearch.NewClient(ctx, cfg.OpenSearch, logger)
		if err != nil {
			logger.Warn("opensearch unavailable, search disabled", logging.Err(err))
		} else {
			b.Search = client
			b.Searcher = opensearch.NewSearcher(client, logger)
			b.Indexer = opensearch.NewIndexer(client, logger)
			if err := b.Indexer.EnsureIndex(ctx); err != nil {
				logger.Warn("ensuring search index failed", logging.Err(err))
			}
		}
	}

	engine := scoring.NewEngine(scoring.DefaultWeights(), logger)
	b.Matcher = scoring.NewMatcher(engine, logger)
	b.Analyzer = competitive.NewEngine(logger)

	b.Predictor = success.NewPredictor(success.Config{
		LearningRate:  cfg.Predictor.LearningRate,
		NumEstimators: cfg.Predictor.NumEstimators,
		TestSize:      cfg.Predictor.TestSize,
		CVFolds:       cfg.Predictor.CVFolds,
	}, logger)
	if b.MinIO != nil {
		b.Models = minio.NewModelStore(b.MinIO)
	} else if cfg.Predictor.ModelDir != "" {
		store, err := success.NewFileModelStore(cfg.Predictor.ModelDir)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Models = store
	}

	b.Registry = success.NewRegistry(b.Models, logger)
	if b.Models != nil {
		if m, err := b.Registry.Get(ctx, cfg.Predictor.ModelID); err == nil {
			b.Predictor.SetModel(m)
		} else {
			logger.Info("no trained model artifact; predictions start neutral",
				logging.String("model_id", cfg.Predictor.ModelID))
		}
	}

	b.Reports = reporting.NewGenerator(b.Matcher, b.Predictor, logger)
	if b.MinIO != nil {
		b.Exporter = reporting.NewExporter(minio.NewReportStore(b.MinIO), logger)
	}

	monitor, err := buildMonitor(cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Monitor = monitor

	return b, nil
}

// buildMonitor assembles the monitoring service when at least one source is
// enabled.  It prefers Redis for the seen-set and falls back to the local
// state file.
func buildMonitor(cfg *config.Config, logger logging.Logger, b *Backends) (*monitoring.Service, error) {
	fetcher := scraping.NewFetcher(cfg.Scraping, logger)
	var sources []monitoring.Source
	interval := time.Duration(0)
	for _, src := range cfg.Monitoring.Sources {
		if !src.Enabled {
			continue
		}
		sources = append(sources, monitoring.NewHTTPSource(src.Name, src.URL, fetcher, logger))
		if src.PollInterval > 0 && (interval == 0 || src.PollInterval < interval) {
			interval = src.PollInterval
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}

	var seen monitoring.SeenStore
	if b.Redis != nil {
		seen = redis.NewSeenSet(b.Redis, "grants:seen", logger)
	} else {
		store, err := monitoring.NewFileSeenStore(cfg.Monitoring.SeenStatePath)
		if err != nil {
			return nil, err
		}
		seen = store
	}

	var publisher monitoring.Publisher
	if b.Kafka != nil {
		publisher = b.Kafka
	}
	var indexer monitoring.GrantIndexer
	if b.Indexer != nil {
		indexer = b.Indexer
	}
	return monitoring.NewService(monitoring.ServiceOptions{
		Sources:    sources,
		Seen:       seen,
		Matcher:    b.Matcher,
		Repo:       b.Grants,
		Orgs:       b.Orgs,
		Indexer:    indexer,
		Publisher:  publisher,
		Notifier:   monitoring.LogNotifier{Logger: logger},
		Metrics:    b.Metrics,
		MinScore:   cfg.Monitoring.MinScore,
		Interval:   interval,
		QueueDepth: cfg.Monitoring.QueueDepth,
		Logger:     logger,
	}), nil
}

// Close releases every opened connection.  Safe to call on a partially
// built value.
func (b *Backends) Close() {
	if b.Kafka != nil {
		if err := b.Kafka.Close(); err != nil {
			b.Logger.Warn("kafka close failed", logging.Err(err))
		}
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			b.Logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if b.Postgres != nil {
		b.Postgres.Close()
	}
}
