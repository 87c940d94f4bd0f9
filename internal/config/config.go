package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPServer HTTPServerConfig `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Seller     SellerConfig     `mapstructure:"seller"`
	Store      StoreConfig      `mapstructure:"store"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Consumer   ConsumerConfig   `mapstructure:"consumer"`
	Health     HealthConfig     `mapstructure:"health"`
	Templates  string           `mapstructure:"templates"`
	FieldMap   string           `mapstructure:"fieldmap"`
}

type HTTPServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SellerConfig points the gateway at the fulfilment backend. Paths are
// relative to BaseURL; {id} is replaced for the per-resource calls.
type SellerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	Paths     SellerPaths   `mapstructure:"paths"`
}

type SellerPaths struct {
	Order            string `mapstructure:"order"`
	Cancel           string `mapstructure:"cancel"`
	Move             string `mapstructure:"move"`
	Deinstall        string `mapstructure:"deinstall"`
	Details          string `mapstructure:"details"`
	List             string `mapstructure:"list"`
	UploadAttachment string `mapstructure:"upload_attachment"`
	DeleteAttachment string `mapstructure:"delete_attachment"`
}

// StoreConfig selects the document store backend and sizes its cache.
// A zero CacheEntryCountCap disables the cache.
type StoreConfig struct {
	Backend            string `mapstructure:"backend"`
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	RedisURL           string `mapstructure:"redis_url"`
	CacheEntryCountCap int    `mapstructure:"cache_entry_count_cap"`
	CacheEntrySizeCap  int    `mapstructure:"cache_entry_size_cap"`
}

type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	GroupID         string   `mapstructure:"group_id"`
	DLQTopic        string   `mapstructure:"dlq_topic"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"`
}

type ConsumerConfig struct {
	Workers      int           `mapstructure:"workers"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	JobsBuffer   int           `mapstructure:"jobs_buffer"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("seller.base_url", "http://localhost:9000")
	v.SetDefault("seller.timeout", 15*time.Second)
	v.SetDefault("seller.rate_limit", 20.0)
	v.SetDefault("seller.burst", 5)
	v.SetDefault("seller.paths.order", "/qcl_crossconnect_order")
	v.SetDefault("seller.paths.cancel", "/qcl_crossconnect_cancel")
	v.SetDefault("seller.paths.move", "/qcl_crossconnect_move")
	v.SetDefault("seller.paths.deinstall", "/qcl_crossconnect_deinstall")
	v.SetDefault("seller.paths.details", "/qcl_crossconnect_details")
	v.SetDefault("seller.paths.list", "/qcl_crossconnect_list")
	v.SetDefault("seller.paths.upload_attachment", "/attachments/upload")
	v.SetDefault("seller.paths.delete_attachment", "/attachments/delete/{id}")

	v.SetDefault("store.backend", BackendMemory)
	// empty defaults register the keys so LSO_STORE_* env values are seen
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.cache_entry_count_cap", 1000)
	v.SetDefault("store.cache_entry_size_cap", 64*1024)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "sonata-notifications")
	v.SetDefault("kafka.group_id", "lso-gateway")
	v.SetDefault("kafka.dlq_topic", "sonata-notifications-dlq")
	v.SetDefault("kafka.auto_offset_reset", "earliest")

	v.SetDefault("consumer.workers", 4)
	v.SetDefault("consumer.max_retries", 3)
	v.SetDefault("consumer.retry_backoff", 500*time.Millisecond)
	v.SetDefault("consumer.jobs_buffer", 100)

	v.SetDefault("health.interval", 10*time.Second)
	v.SetDefault("health.timeout", 2*time.Second)

	v.SetDefault("templates", "")
	v.SetDefault("fieldmap", "")
}

// LoadConfig reads defaults, then the optional YAML file named by
// LSO_CONFIG, then LSO_* environment variables (LSO_HTTP_PORT,
// LSO_SELLER_BASE_URL, LSO_KAFKA_BROKERS as a comma separated list...).
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LSO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("LSO_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// comma separated env values arrive as a single element
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Seller.BaseURL == "" {
		return errors.New("seller.base_url is required")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.Consumer.Workers < 1 {
		c.Consumer.Workers = 1
	}
	if c.Consumer.MaxRetries < 1 {
		c.Consumer.MaxRetries = 1
	}
	return nil
}
