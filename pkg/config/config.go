// Package config loads and validates application configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Server, AWS, OpenSearch, Extraction, Annotation, Search,
// Uploads, Postgres, Kafka, Redis, etc.).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
)

// Index backends.
const (
	BackendOpenSearch = "opensearch"
	BackendMemory     = "memory"
)

// Extraction engines.
const (
	EngineTextract  = "textract"
	EngineTesseract = "tesseract"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	AWS        AWSConfig        `yaml:"aws"`
	OpenSearch OpenSearchConfig `yaml:"opensearch"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Search     SearchConfig     `yaml:"search"`
	Uploads    UploadsConfig    `yaml:"uploads"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AWSConfig selects the region and, for local stacks, a custom endpoint.
type AWSConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// OpenSearchConfig describes the index engine. Host is required when the
// opensearch backend is selected.
type OpenSearchConfig struct {
	Backend            string        `yaml:"backend"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	Scheme             string        `yaml:"scheme"`
	Index              string        `yaml:"index"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	SignRequests       bool          `yaml:"signRequests"`
	SigningService     string        `yaml:"signingService"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
	Timeout            time.Duration `yaml:"timeout"`
}

// BaseURL returns scheme://host:port for the configured cluster.
func (o OpenSearchConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", o.Scheme, o.Host, o.Port)
}

// ExtractionConfig selects the OCR engine.
type ExtractionConfig struct {
	Engine    string   `yaml:"engine"`
	Languages []string `yaml:"languages"`
}

// AnnotationConfig controls the language/entity enrichment step.
type AnnotationConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxChars         int           `yaml:"maxChars"`
	FallbackLanguage string        `yaml:"fallbackLanguage"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerCooldown  time.Duration `yaml:"breakerCooldown"`
}

// SearchConfig controls the query path.
type SearchConfig struct {
	MaxResults int `yaml:"maxResults"`
	// CacheEnabled turns on the Redis result cache. Ingestion reads the same
	// flag and clears the cache after every index write, so all processes
	// sharing an index must agree on it.
	CacheEnabled bool `yaml:"cacheEnabled"`
}

// UploadsConfig holds the upload-URL issuer settings.
type UploadsConfig struct {
	Bucket string        `yaml:"bucket"`
	Expiry time.Duration `yaml:"expiry"`
}

// PostgresConfig holds PostgreSQL connection parameters for the ingest ledger.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
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
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics"`
	MaxAttempts   int           `yaml:"maxAttempts"`
	RetryBackoff  time.Duration `yaml:"retryBackoff"`
	// RedeliveryDelay is the pause after a fetch error, and before a message
	// whose handling failed is fetched again.
	RedeliveryDelay time.Duration `yaml:"redeliveryDelay"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ObjectCreated string `yaml:"objectCreated"`
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), a .env file in the working
// directory (if present), and applies environment-variable overrides.
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
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		OpenSearch: OpenSearchConfig{
			Backend:        BackendOpenSearch,
			Port:           443,
			Scheme:         "https",
			Index:          "documents",
			SignRequests:   true,
			SigningService: "es",
			Timeout:        30 * time.Second,
		},
		Extraction: ExtractionConfig{
			Engine:    EngineTextract,
			Languages: []string{"eng"},
		},
		Annotation: AnnotationConfig{
			Enabled:          true,
			MaxChars:         5000,
			FallbackLanguage: "en",
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 20,
		},
		Uploads: UploadsConfig{
			Expiry: time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "docsearch",
			User:            "docsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "docsearch-ingestion",
			Topics: KafkaTopics{
				ObjectCreated: "object-created",
				IndexComplete: "index.complete",
			},
			MaxAttempts:     3,
			RetryBackoff:    time.Second,
			RedeliveryDelay: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
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

// ValidateIndex checks the settings every index-touching process needs.
func (c *Config) ValidateIndex() error {
	switch c.OpenSearch.Backend {
	case BackendMemory:
		return nil
	case BackendOpenSearch:
		if strings.TrimSpace(c.OpenSearch.Host) == "" {
			return apperrors.New(apperrors.ErrNotConfigured, http.StatusInternalServerError, "OpenSearch domain not configured.")
		}
		if c.OpenSearch.Index == "" {
			return apperrors.New(apperrors.ErrNotConfigured, http.StatusInternalServerError, "OpenSearch index not configured.")
		}
		return nil
	default:
		return apperrors.Newf(apperrors.ErrNotConfigured, http.StatusInternalServerError, "unknown index backend %q", c.OpenSearch.Backend)
	}
}

// ValidateUploads checks the upload-URL issuer settings.
func (c *Config) ValidateUploads() error {
	if strings.TrimSpace(c.Uploads.Bucket) == "" {
		return apperrors.New(apperrors.ErrNotConfigured, http.StatusInternalServerError, "Server-side bucket not configured.")
	}
	return nil
}

// applyEnvOverrides reads DSP_* environment variables, plus the unprefixed
// deployment variables, and overrides the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DSP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := firstEnv("DSP_AWS_REGION", "AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("DSP_AWS_ENDPOINT"); v != "" {
		cfg.AWS.Endpoint = v
	}
	if v := os.Getenv("DSP_INDEX_BACKEND"); v != "" {
		cfg.OpenSearch.Backend = v
	}
	if v := firstEnv("DSP_OPENSEARCH_HOST", "OPENSEARCH_HOST"); v != "" {
		cfg.OpenSearch.Host = v
	}
	if v := os.Getenv("DSP_OPENSEARCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.OpenSearch.Port = port
		}
	}
	if v := os.Getenv("DSP_OPENSEARCH_SCHEME"); v != "" {
		cfg.OpenSearch.Scheme = v
	}
	if v := firstEnv("DSP_OPENSEARCH_INDEX", "OPENSEARCH_INDEX"); v != "" {
		cfg.OpenSearch.Index = v
	}
	if v := os.Getenv("DSP_OPENSEARCH_USERNAME"); v != "" {
		cfg.OpenSearch.Username = v
	}
	if v := os.Getenv("DSP_OPENSEARCH_PASSWORD"); v != "" {
		cfg.OpenSearch.Password = v
	}
	if v := os.Getenv("DSP_OPENSEARCH_SIGN_REQUESTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OpenSearch.SignRequests = b
		}
	}
	if v := os.Getenv("DSP_EXTRACTION_ENGINE"); v != "" {
		cfg.Extraction.Engine = v
	}
	if v := os.Getenv("DSP_ANNOTATION_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Annotation.MaxChars = n
		}
	}
	if v := os.Getenv("DSP_ANNOTATION_FALLBACK_LANGUAGE"); v != "" {
		cfg.Annotation.FallbackLanguage = v
	}
	if v := firstEnv("DSP_UPLOAD_BUCKET", "UPLOAD_BUCKET"); v != "" {
		cfg.Uploads.Bucket = v
	}
	if v := os.Getenv("DSP_POSTGRES_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Postgres.Enabled = b
		}
	}
	if v := os.Getenv("DSP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("DSP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("DSP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("DSP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("DSP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("DSP_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("DSP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DSP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DSP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DSP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DSP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
