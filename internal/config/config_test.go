package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SERVICE_ENVIRONMENT", "development")
	t.Setenv("SQS_QUEUE_URL", "http://localhost:9324/queue/ingest")
	t.Setenv("SQS_REGION", "us-east-1")
	t.Setenv("CLICKHOUSE_HOST", "localhost")
	t.Setenv("CLICKHOUSE_PORT", "9000")
	t.Setenv("CLICKHOUSE_DATABASE", "ingest")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Service.Environment)
	assert.Equal(t, "8080", cfg.Service.APIPort)
	assert.Equal(t, 4, cfg.Ingestion.Workers)
	assert.Equal(t, 64, cfg.Ingestion.MaxInFlight)
	assert.Equal(t, 1000, cfg.Ingestion.DefaultChunkSize)
	assert.Equal(t, int64(12345), cfg.Ingestion.Seed)
	assert.Equal(t, int64(67108864), cfg.Ingestion.MaxCSVBytes)
	assert.Equal(t, int64(16777216), cfg.Ingestion.MaxFetchBytes)
	assert.Equal(t, "9000", cfg.ClickHouse.Port)
	assert.Equal(t, 500, cfg.RunLog.BatchSizeMax)
	assert.Equal(t, 10, cfg.RunLog.BatchTimeoutSec)
	assert.Equal(t, "8081", cfg.Consumer.HealthCheckPort)
	assert.Equal(t, 5, cfg.Consumer.RetryDelaySec)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INGESTION_WORKERS", "8")
	t.Setenv("INGESTION_SEED", "42")
	t.Setenv("RUNLOG_BATCH_SIZE_MAX", "50")
	t.Setenv("INGESTION_MAX_FETCH_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Ingestion.Workers)
	assert.Equal(t, int64(42), cfg.Ingestion.Seed)
	assert.Equal(t, 50, cfg.RunLog.BatchSizeMax)
	assert.Equal(t, int64(1024), cfg.Ingestion.MaxFetchBytes)
	assert.Equal(t, int64(67108864), cfg.Ingestion.MaxCSVBytes)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, os.Unsetenv("SERVICE_ENVIRONMENT"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INGESTION_WORKERS", "0")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "INGESTION_WORKERS")
}
