package config

import "time"

// ApplyDefaults fills every unset Config field with a production-safe
// default.  The function is idempotent: explicitly set values are never
// overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "grantscope"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "grantscope"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "grantscope:"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = "all"
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = "grantscope"
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = "grantscope"
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = "localhost:9000"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "grantscope"
	}

	if cfg.Predictor.LearningRate == 0 {
		cfg.Predictor.LearningRate = 0.1
	}
	if cfg.Predictor.NumEstimators == 0 {
		cfg.Predictor.NumEstimators = 100
	}
	if cfg.Predictor.TestSize == 0 {
		cfg.Predictor.TestSize = 0.2
	}
	if cfg.Predictor.CVFolds == 0 {
		cfg.Predictor.CVFolds = 5
	}
	if cfg.Predictor.ModelDir == "" {
		cfg.Predictor.ModelDir = "data/models"
	}
	if cfg.Predictor.ModelID == "" {
		cfg.Predictor.ModelID = "grant-success"
	}

	if cfg.Monitoring.MinScore == 0 {
		cfg.Monitoring.MinScore = 0.6
	}
	if cfg.Monitoring.SeenStatePath == "" {
		cfg.Monitoring.SeenStatePath = "data/seen_grants.json"
	}
	if cfg.Monitoring.QueueDepth == 0 {
		cfg.Monitoring.QueueDepth = 256
	}
	for i := range cfg.Monitoring.Sources {
		if cfg.Monitoring.Sources[i].PollInterval == 0 {
			cfg.Monitoring.Sources[i].PollInterval = time.Hour
		}
	}

	if cfg.Scraping.Timeout == 0 {
		cfg.Scraping.Timeout = 30 * time.Second
	}
	if cfg.Scraping.MaxRetries == 0 {
		cfg.Scraping.MaxRetries = 3
	}
	if cfg.Scraping.RateLimitRPS == 0 {
		cfg.Scraping.RateLimitRPS = 2.0
	}
	if cfg.Scraping.UserAgent == "" {
		cfg.Scraping.UserAgent = "GrantScope/1.0 (+https://github.com/turtacn/GrantScope)"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
