package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Ingest surface
	IngestServerAddr string  `env:"INGEST_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr  string  `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	MaxBodySize      int64   `env:"MAX_BODY_SIZE_BYTES" envDefault:"10485760"` // 10MB
	IngestRateLimit  float64 `env:"INGEST_RATE_LIMIT" envDefault:"5000"`       // lines/sec
	IngestRateBurst  int     `env:"INGEST_RATE_BURST" envDefault:"500"`

	// Buffer and sink
	RedisAddr      string `env:"REDIS_ADDR,required"`
	RedisDLQStream string `env:"REDIS_DLQ_STREAM" envDefault:"access_events_dlq"`
	PostgresURL    string `env:"POSTGRES_URL,required"`

	// WAL failover
	WALPath        string `env:"WAL_PATH" envDefault:"./wal"`
	WALSegmentSize int64  `env:"WAL_SEGMENT_SIZE_BYTES" envDefault:"104857600"` // 100MB
	WALMaxDiskSize int64  `env:"WAL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB

	// Caching
	APIKeyCacheTTL time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`
	StatsCacheTTL  time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	// Parsed-field anonymization, comma separated (userid, ipaddress)
	AnonymizeFields string `env:"ANONYMIZE_FIELDS" envDefault:""`

	// Mapping table sources
	ResponseCodesFile string `env:"RESPONSE_CODES_FILE" envDefault:"./data/response_codes.tsv"`
	IPCountriesFile   string `env:"IP_COUNTRIES_FILE" envDefault:"./data/ip_countries.tsv"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
