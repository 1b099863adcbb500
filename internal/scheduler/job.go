package scheduler

import (
	"context"
	"time"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/source"
)

// Job is one ingestion request moving through the scheduler. Its fields are
// owned by the scheduler once submitted.
type Job struct {
	RequestID string
	Kind      domain.Kind
	Adapter   source.Adapter
	ChunkSize int
	// OnDone runs once after the terminal event has been published.
	OnDone func()

	names     protocol.EventNames
	ctx       context.Context
	cancel    context.CancelFunc
	opened    bool
	total     int
	processed int
	rows      []domain.Row
	startedAt time.Time
}

// NewJob creates a job reading from adapter in chunks of chunkSize positions
func NewJob(requestID string, kind domain.Kind, adapter source.Adapter, chunkSize int) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		RequestID: requestID,
		Kind:      kind,
		Adapter:   adapter,
		ChunkSize: chunkSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Cancel stops the job at its next yield point. It fails with context.Canceled.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Outcome describes a job that reached a terminal state
type Outcome struct {
	RequestID  string
	Kind       domain.Kind
	Status     domain.RunStatus
	Rows       int
	Total      int
	ChunkSize  int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}
