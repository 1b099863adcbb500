package repository

import (
	"context"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

// RunStatsQuery selects finished runs in [From, To], both Unix seconds
type RunStatsQuery struct {
	From    int64
	To      int64
	Kind    string
	GroupBy string
}

// RunStatsGroupResult represents aggregated runs for a specific group
type RunStatsGroupResult struct {
	GroupValue string
	Runs       uint64
	Rows       uint64
}

// RunStatsResult represents the result of a run stats query
type RunStatsResult struct {
	TotalRuns  uint64
	FailedRuns uint64
	TotalRows  uint64
	Groups     []RunStatsGroupResult
}

// RunRepository defines the interface for run log storage operations
type RunRepository interface {
	// InsertBatch inserts a batch of runs into the storage
	InsertBatch(ctx context.Context, runs []*domain.Run) (int, error)

	// InitSchema creates tables if they don't exist
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetRunStats aggregates finished runs matching the query
	GetRunStats(ctx context.Context, query RunStatsQuery) (*RunStatsResult, error)
}
