// Package config provides configuration loading and management for ReliefWatch.
// It supports loading configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageMode represents the storage backend mode.
type StorageMode string

const (
	// StorageModeMemory uses in-memory implementations for all storage.
	StorageModeMemory StorageMode = "memory"
	// StorageModeStorage uses real storage backends (Kafka, Redis, PostgreSQL).
	StorageModeStorage StorageMode = "storage"
)

// IsValid returns true if the storage mode is valid.
func (m StorageMode) IsValid() bool {
	return m == StorageModeMemory || m == StorageModeStorage
}

// Config represents the complete application configuration.
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Mailer      MailerConfig      `yaml:"mailer"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Correlation CorrelationConfig `yaml:"correlation"`
	Logger      LoggerConfig      `yaml:"logger"`
}

// StorageConfig holds the storage mode configuration.
type StorageConfig struct {
	Mode StorageMode `yaml:"mode"`
}

// UseMemory returns true if in-memory storage should be used.
func (c *StorageConfig) UseMemory() bool {
	return c.Mode == StorageModeMemory
}

// UseStorage returns true if real storage backends should be used.
func (c *StorageConfig) UseStorage() bool {
	return c.Mode == StorageModeStorage
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// KafkaConfig holds Kafka connection and topic settings.
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	Topic          string   `yaml:"topic"`
	ConsumerGroup  string   `yaml:"consumer_group"`
	PartitionCount int      `yaml:"partition_count"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int32  `yaml:"max_open_conns"`
	MaxIdleConns int32  `yaml:"max_idle_conns"`
}

// ClassifierConfig holds event classification settings.
type ClassifierConfig struct {
	// Provider selects the classifier backend: "keyword" (built-in
	// heuristics) or "http" (external analysis service).
	Provider string        `yaml:"provider"`
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MailerConfig holds outbound email settings.
type MailerConfig struct {
	// Provider selects the delivery backend: "log", "smtp" or "resend".
	Provider     string `yaml:"provider"`
	From         string `yaml:"from"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	ResendAPIKey string `yaml:"resend_api_key"`
}

// SchedulerConfig holds background job cadences.
type SchedulerConfig struct {
	ImmediateInterval time.Duration `yaml:"immediate_interval"`
	DailyInterval     time.Duration `yaml:"daily_interval"`
	WeeklyInterval    time.Duration `yaml:"weekly_interval"`
	BacklogInterval   time.Duration `yaml:"backlog_interval"`
	ClassifyInterval  time.Duration `yaml:"classify_interval"`
	ItemDelay         time.Duration `yaml:"item_delay"`
	BatchSize         int           `yaml:"batch_size"`
}

// CorrelationConfig holds crisis correlation settings.
type CorrelationConfig struct {
	// StalenessWindow is how old an event may be and still open or
	// extend a crisis.
	StalenessWindow time.Duration `yaml:"staleness_window"`
	// CacheTTL bounds how long open-crisis candidates are served from
	// the state store before falling back to the repository.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// RelevanceThreshold is the minimum relevance score for an event to
	// participate in correlation.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from the specified YAML file path.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	// Clean the path to prevent path traversal attacks
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// Default returns a configuration with all defaults applied, suitable
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets sensible default values for configuration fields
// that are not explicitly set in the config file.
func applyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeMemory
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}

	// Kafka defaults
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "reliefwatch-receipts"
	}
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = "reliefwatch-pipeline"
	}
	if cfg.Kafka.PartitionCount == 0 {
		cfg.Kafka.PartitionCount = 32
	}

	// Redis defaults
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// Postgres defaults
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 25
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 5
	}

	// Classifier defaults
	if cfg.Classifier.Provider == "" {
		cfg.Classifier.Provider = "keyword"
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 15 * time.Second
	}

	// Mailer defaults
	if cfg.Mailer.Provider == "" {
		cfg.Mailer.Provider = "log"
	}
	if cfg.Mailer.From == "" {
		cfg.Mailer.From = "alerts@reliefwatch.local"
	}
	if cfg.Mailer.SMTPPort == 0 {
		cfg.Mailer.SMTPPort = 587
	}

	// Scheduler defaults
	if cfg.Scheduler.ImmediateInterval == 0 {
		cfg.Scheduler.ImmediateInterval = 5 * time.Minute
	}
	if cfg.Scheduler.DailyInterval == 0 {
		cfg.Scheduler.DailyInterval = 24 * time.Hour
	}
	if cfg.Scheduler.WeeklyInterval == 0 {
		cfg.Scheduler.WeeklyInterval = 7 * 24 * time.Hour
	}
	if cfg.Scheduler.BacklogInterval == 0 {
		cfg.Scheduler.BacklogInterval = 10 * time.Minute
	}
	if cfg.Scheduler.ClassifyInterval == 0 {
		cfg.Scheduler.ClassifyInterval = 15 * time.Minute
	}
	if cfg.Scheduler.ItemDelay == 0 {
		cfg.Scheduler.ItemDelay = 200 * time.Millisecond
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 50
	}

	// Correlation defaults
	if cfg.Correlation.StalenessWindow == 0 {
		cfg.Correlation.StalenessWindow = 30 * 24 * time.Hour
	}
	if cfg.Correlation.CacheTTL == 0 {
		cfg.Correlation.CacheTTL = 5 * time.Minute
	}
	if cfg.Correlation.RelevanceThreshold == 0 {
		cfg.Correlation.RelevanceThreshold = 0.5
	}

	// Logger defaults
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
}

// Address returns the full server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address in host:port format.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
