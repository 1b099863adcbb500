package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service    Service
	Ingestion  Ingestion
	SQS        SQS
	ClickHouse ClickHouse
	RunLog     RunLog
	Consumer   Consumer
}

type Service struct {
	Environment string `split_words:"true" required:"true"`
	APIPort     string `split_words:"true" default:"8080"`
}

// Ingestion configures the chunk scheduler and the source adapters
type Ingestion struct {
	Workers          int     `split_words:"true" default:"4"`
	MaxInFlight      int     `split_words:"true" default:"64"`
	DefaultChunkSize int     `split_words:"true" default:"1000"`
	Seed             int64   `split_words:"true" default:"12345"`
	FetchTimeoutSec  int     `split_words:"true" default:"30"`
	FetchRateLimit   float64 `split_words:"true" default:"10"`
	FetchRateBurst   int     `split_words:"true" default:"5"`
	MaxCSVBytes      int64   `split_words:"true" default:"67108864"`
	MaxFetchBytes    int64   `split_words:"true" default:"16777216"`
	SubscriberBuffer int     `split_words:"true" default:"256"`
}

type SQS struct {
	Endpoint string `split_words:"true"`
	QueueURL string `split_words:"true" required:"true"`
	Region   string `split_words:"true" required:"true"`
}

type ClickHouse struct {
	Host               string `split_words:"true" required:"true"`
	Port               string `split_words:"true" required:"true"`
	Database           string `split_words:"true" required:"true"`
	User               string `split_words:"true" default:""`
	Password           string `split_words:"true" default:""`
	UseTLS             bool   `split_words:"true" default:"false"`
	MaxOpenConns       int    `split_words:"true" default:"5"`
	MaxIdleConns       int    `split_words:"true" default:"2"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"3600"`
}

// RunLog configures batching of finished runs into ClickHouse
type RunLog struct {
	BatchSizeMax    int `split_words:"true" default:"500"`
	BatchTimeoutSec int `split_words:"true" default:"10"`
	Buffer          int `split_words:"true" default:"1024"`
}

type Consumer struct {
	HealthCheckPort string `split_words:"true" default:"8081"`
	BufferSize      int    `split_words:"true" default:"100"`
	RetryDelaySec   int    `split_words:"true" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Ingestion.Workers < 1 {
		return fmt.Errorf("INGESTION_WORKERS must be positive, got %d", c.Ingestion.Workers)
	}
	if c.Ingestion.MaxInFlight < 1 {
		return fmt.Errorf("INGESTION_MAX_IN_FLIGHT must be positive, got %d", c.Ingestion.MaxInFlight)
	}
	if c.Ingestion.DefaultChunkSize < 1 {
		return fmt.Errorf("INGESTION_DEFAULT_CHUNK_SIZE must be positive, got %d", c.Ingestion.DefaultChunkSize)
	}
	return nil
}
