// Package runlog records the terminal outcome of every ingestion request in
// the run log.
package runlog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/scheduler"
)

// Recorder turns scheduler outcomes into runs and feeds them to a BatchWriter
type Recorder struct {
	runs   chan *domain.Run
	writer *BatchWriter
	log    *zap.Logger
}

// NewRecorder creates a recorder buffering up to buffer runs ahead of the writer
func NewRecorder(writer *BatchWriter, buffer int, log *zap.Logger) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	return &Recorder{
		runs:   make(chan *domain.Run, buffer),
		writer: writer,
		log:    log,
	}
}

// Record queues outcome for writing. It never blocks; when the buffer is full
// the run is dropped.
func (r *Recorder) Record(outcome scheduler.Outcome) {
	run := toRun(outcome)

	select {
	case r.runs <- run:
	default:
		r.log.Warn("Run log buffer full, dropping run",
			zap.String("run_id", run.RunID),
			zap.String("request_id", run.RequestID))
	}
}

// Start runs the batch writer until ctx is done
func (r *Recorder) Start(ctx context.Context) {
	r.writer.Start(ctx, r.runs)
}

func toRun(outcome scheduler.Outcome) *domain.Run {
	run := &domain.Run{
		RunID:      uuid.NewString(),
		RequestID:  outcome.RequestID,
		Kind:       string(outcome.Kind),
		Status:     string(outcome.Status),
		RowCount:   uint64(outcome.Rows),
		Total:      uint64(outcome.Total),
		ChunkSize:  uint32(outcome.ChunkSize),
		StartedAt:  outcome.StartedAt,
		FinishedAt: outcome.FinishedAt,
	}
	if outcome.Err != nil {
		run.Error = outcome.Err.Error()
	}
	return run
}
