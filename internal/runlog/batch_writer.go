package runlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter batches runs and writes them to the repository
type BatchWriter struct {
	repository repository.RunRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.RunRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	if config.MaxBatchSize < 1 {
		config.MaxBatchSize = 1
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = 10 * time.Second
	}

	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start consumes runs until in is closed or ctx is done, flushing whenever
// the batch is full or the flush timeout passes.
func (w *BatchWriter) Start(ctx context.Context, in <-chan *domain.Run) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*domain.Run, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Run batch writer shutting down")
			w.flushFinal(pending(batch, in))
			return

		case run, ok := <-in:
			if !ok {
				w.log.Info("Run batch writer input channel closed")
				w.flushFinal(batch)
				return
			}

			batch = append(batch, run)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Debug("Run batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.write(ctx, batch)
				batch = make([]*domain.Run, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Debug("Run batch timeout reached", zap.Int("run_count", len(batch)))
				w.write(ctx, batch)
				batch = make([]*domain.Run, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// pending appends the runs already buffered in in without waiting for more
func pending(batch []*domain.Run, in <-chan *domain.Run) []*domain.Run {
	for {
		select {
		case run, ok := <-in:
			if !ok {
				return batch
			}
			batch = append(batch, run)
		default:
			return batch
		}
	}
}

// flushFinal writes what is left on a context that outlives shutdown
func (w *BatchWriter) flushFinal(batch []*domain.Run) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w.log.Info("Flushing final run batch", zap.Int("run_count", len(batch)))
	w.write(ctx, batch)
}

// write inserts one batch. Runs are operational metadata, so a failed batch is
// logged and dropped rather than retried.
func (w *BatchWriter) write(ctx context.Context, runs []*domain.Run) {
	insertedCount, err := w.repository.InsertBatch(ctx, runs)
	if err != nil {
		w.log.Error("Failed to insert run batch",
			zap.Error(err),
			zap.Int("run_count", len(runs)))
		return
	}

	if insertedCount != len(runs) {
		w.log.Warn("Partial run batch insert",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(runs)))
		return
	}

	w.log.Info("Inserted run batch", zap.Int("count", insertedCount))
}
