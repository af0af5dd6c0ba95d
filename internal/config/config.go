// Package config defines all configuration structures for the GrantScope
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.  Loading lives in loader.go, defaults in defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.  URL, when set
// (typically via the DATABASE_URL environment variable), overrides the
// discrete fields.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// DSN assembles a postgres connection string from the configuration.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Acks         string        `mapstructure:"acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// PredictorConfig holds success-predictor training and artifact parameters.
type PredictorConfig struct {
	LearningRate  float64 `mapstructure:"learning_rate"`
	NumEstimators int     `mapstructure:"num_estimators"`
	TestSize      float64 `mapstructure:"test_size"`
	CVFolds       int     `mapstructure:"cv_folds"`
	ModelDir      string  `mapstructure:"model_dir"`
	ModelID       string  `mapstructure:"model_id"`
}

// SourceConfig describes one grant source polled by the monitoring service.
type SourceConfig struct {
	Name         string        `mapstructure:"name"`
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Enabled      bool          `mapstructure:"enabled"`
}

// MonitoringConfig holds the grant-monitoring service parameters.
type MonitoringConfig struct {
	Sources       []SourceConfig `mapstructure:"sources"`
	MinScore      float64        `mapstructure:"min_score"`
	SeenStatePath string         `mapstructure:"seen_state_path"`
	QueueDepth    int            `mapstructure:"queue_depth"`
}

// ScrapingConfig holds the HTTP fetcher parameters.
type ScrapingConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the root configuration object for all GrantScope binaries.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig  `mapstructure:"opensearch"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	Predictor  PredictorConfig   `mapstructure:"predictor"`
	Monitoring MonitoringConfig  `mapstructure:"monitoring"`
	Scraping   ScrapingConfig    `mapstructure:"scraping"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Log        logging.LogConfig `mapstructure:"log"`
}

// Validate checks cross-field invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q must be debug, release, or test", c.Server.Mode)
	}
	if c.Predictor.LearningRate <= 0 || c.Predictor.LearningRate > 1 {
		return fmt.Errorf("predictor.learning_rate %g must be in (0,1]", c.Predictor.LearningRate)
	}
	if c.Predictor.NumEstimators <= 0 {
		return fmt.Errorf("predictor.num_estimators must be positive")
	}
	if c.Predictor.TestSize <= 0 || c.Predictor.TestSize >= 1 {
		return fmt.Errorf("predictor.test_size %g must be in (0,1)", c.Predictor.TestSize)
	}
	if c.Monitoring.MinScore < 0 || c.Monitoring.MinScore > 1 {
		return fmt.Errorf("monitoring.min_score %g must be in [0,1]", c.Monitoring.MinScore)
	}
	for i, src := range c.Monitoring.Sources {
		if src.Name == "" {
			return fmt.Errorf("monitoring.sources[%d].name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("monitoring.sources[%d].url is required", i)
		}
	}
	if c.Scraping.RateLimitRPS <= 0 {
		return fmt.Errorf("scraping.rate_limit_rps must be positive")
	}
	return nil
}
