package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/repository"
)

const runsTable = "ingestion_runs"

// Repository implements RunRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the run log table. Runs are append-only, so a plain
// MergeTree ordered by finish time is enough.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
		run_id String,
		request_id String,
		kind LowCardinality(String),
		status LowCardinality(String),
		row_count UInt64,
		total UInt64,
		chunk_size UInt32,
		error String,
		started_at DateTime64(3),
		finished_at DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (finished_at, run_id)
	PARTITION BY toYYYYMM(finished_at)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", runsTable, err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch inserts a batch of runs into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, runs []*domain.Run) (int, error) {
	if len(runs) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO "+runsTable)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, run := range runs {
		err := batch.Append(
			run.RunID,
			run.RequestID,
			run.Kind,
			run.Status,
			run.RowCount,
			run.Total,
			run.ChunkSize,
			run.Error,
			run.StartedAt,
			run.FinishedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append run to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetRunStats aggregates the run log over a time window
func (r *Repository) GetRunStats(ctx context.Context, query repository.RunStatsQuery) (*repository.RunStatsResult, error) {
	result := &repository.RunStatsResult{
		Groups: []repository.RunStatsGroupResult{},
	}

	where, args := whereClause(query)

	overallQuery := fmt.Sprintf(`
		SELECT
			count() AS total_runs,
			countIf(status = '%s') AS failed_runs,
			sum(row_count) AS total_rows
		FROM %s
		%s
	`, domain.RunFailed, runsTable, where)

	row := r.client.Conn().QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalRuns, &result.FailedRuns, &result.TotalRows); err != nil {
		return nil, fmt.Errorf("failed to query overall run stats: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	selectField, groupBy, orderBy, err := grouping(query.GroupBy)
	if err != nil {
		return nil, err
	}

	groupedQuery := fmt.Sprintf(`
		SELECT
			%s AS group_value,
			count() AS runs,
			sum(row_count) AS rows
		FROM %s
		%s
		%s
		%s
	`, selectField, runsTable, where, groupBy, orderBy)

	rows, err := r.client.Conn().Query(ctx, groupedQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped run stats: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close grouped run stats rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.RunStatsGroupResult
		if err := rows.Scan(&group.GroupValue, &group.Runs, &group.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan grouped run stats row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped run stats rows: %w", err)
	}

	return result, nil
}

func whereClause(query repository.RunStatsQuery) (string, []interface{}) {
	conditions := []string{"finished_at >= ?", "finished_at <= ?"}
	args := []interface{}{time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC()}

	if query.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, query.Kind)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func grouping(groupBy string) (selectField, groupClause, orderBy string, err error) {
	switch groupBy {
	case "kind":
		return "kind", "GROUP BY kind", "ORDER BY runs DESC", nil
	case "status":
		return "status", "GROUP BY status", "ORDER BY runs DESC", nil
	case "day":
		return "formatDateTime(toStartOfDay(finished_at), '%Y-%m-%d')",
			"GROUP BY toStartOfDay(finished_at)",
			"ORDER BY group_value ASC", nil
	default:
		return "", "", "", fmt.Errorf("unsupported group_by value: %s (supported: kind, status, day)", groupBy)
	}
}
