// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// corpus limits, BM25 parameters, caches and every supporting subsystem.
package config

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings. RateLimit is requests per
// RateWindow per client address; zero disables limiting.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       int           `yaml:"rateLimit"`
	RateWindow      time.Duration `yaml:"rateWindow"`
}

// CorpusConfig selects the corpus source and bounds what may be loaded.
// Non-positive limits disable the corresponding check.
type CorpusConfig struct {
	Source           string        `yaml:"source"`
	Path             string        `yaml:"path"`
	Format           string        `yaml:"format"`
	Query            string        `yaml:"query"`
	MaxDocuments     int           `yaml:"maxDocuments"`
	MaxURLLength     int           `yaml:"maxUrlLength"`
	MaxContentLength int           `yaml:"maxContentLength"`
	BuildWorkers     int           `yaml:"buildWorkers"`
	LoadTimeout      time.Duration `yaml:"loadTimeout"`
}

// BM25Config holds the Okapi BM25 free parameters.
type BM25Config struct {
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// SearchConfig controls query limits and ranking parameters.
type SearchConfig struct {
	MaxQueryLength int        `yaml:"maxQueryLength"`
	DefaultLimit   int        `yaml:"defaultLimit"`
	MaxResults     int        `yaml:"maxResults"`
	BM25           BM25Config `yaml:"bm25"`
}

// CacheConfig selects the query-result cache backend ("lru", "redis" or
// "none").
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers        []string      `yaml:"brokers"`
	AnalyticsTopic string        `yaml:"analyticsTopic"`
	PublishTimeout time.Duration `yaml:"publishTimeout"`
}

// AnalyticsConfig controls search-event collection.
type AnalyticsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	PublishKafka  bool          `yaml:"publishKafka"`
	BufferSize    int           `yaml:"bufferSize"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles span logging around the index build.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults suitable for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       600,
			RateWindow:      time.Minute,
		},
		Corpus: CorpusConfig{
			Source:           "file",
			Path:             "documents.txt",
			Format:           "auto",
			Query:            "SELECT url, content FROM documents ORDER BY id",
			MaxDocuments:     10000,
			MaxURLLength:     1000,
			MaxContentLength: 16 << 20,
			BuildWorkers:     4,
			LoadTimeout:      2 * time.Minute,
		},
		Search: SearchConfig{
			MaxQueryLength: 1000,
			DefaultLimit:   10,
			MaxResults:     100,
			BM25: BM25Config{
				K1: 1.2,
				B:  0.75,
			},
		},
		Cache: CacheConfig{
			Backend: "lru",
			Size:    1024,
			TTL:     5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "bm25search",
			User:            "bm25search",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			AnalyticsTopic: "search-analytics",
			PublishTimeout: 5 * time.Second,
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			BufferSize:    10000,
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects configurations the index or scorer cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		problems = append(problems, "server.rateWindow must be > 0 when rateLimit is set")
	}
	switch c.Corpus.Source {
	case "file", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("corpus.source %q must be file or postgres", c.Corpus.Source))
	}
	switch c.Corpus.Format {
	case "auto", "lines", "blocks":
	default:
		problems = append(problems, fmt.Sprintf("corpus.format %q must be auto, lines or blocks", c.Corpus.Format))
	}
	if k1 := c.Search.BM25.K1; !finite(k1) || k1 < 0 {
		problems = append(problems, "search.bm25.k1 must be a finite number >= 0")
	}
	if b := c.Search.BM25.B; !finite(b) || b < 0 || b > 1 {
		problems = append(problems, "search.bm25.b must be within [0, 1]")
	}
	if c.Search.DefaultLimit < 0 {
		problems = append(problems, "search.defaultLimit must be >= 0")
	}
	if c.Search.MaxResults > 0 && c.Search.DefaultLimit > c.Search.MaxResults {
		problems = append(problems, "search.defaultLimit must not exceed search.maxResults")
	}
	switch c.Cache.Backend {
	case "lru", "redis", "none", "":
	default:
		problems = append(problems, fmt.Sprintf("cache.backend %q must be lru, redis or none", c.Cache.Backend))
	}
	if len(problems) > 0 {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "config: "+strings.Join(problems, "; "))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// applyEnvOverrides reads BM25_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BM25_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BM25_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("BM25_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("BM25_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("BM25_CORPUS_FORMAT"); v != "" {
		cfg.Corpus.Format = v
	}
	if v := os.Getenv("BM25_MAX_DOCUMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Corpus.MaxDocuments = n
		}
	}
	if v := os.Getenv("BM25_MAX_CONTENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Corpus.MaxContentLength = n
		}
	}
	if v := os.Getenv("BM25_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.BM25.K1 = f
		}
	}
	if v := os.Getenv("BM25_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.BM25.B = f
		}
	}
	if v := os.Getenv("BM25_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("BM25_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BM25_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BM25_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BM25_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BM25_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BM25_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BM25_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
