// Package scheduler runs ingestion jobs chunk by chunk on a bounded worker pool.
//
// A worker processes exactly one chunk of one job and then puts the job back
// on the queue, so long jobs never starve short ones. A job is never queued
// or running more than once at a time, which keeps its events in order.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

var (
	// ErrBusy is returned by Submit when MaxInFlight jobs are already admitted.
	ErrBusy = errors.New("scheduler is at capacity")
	// ErrStopped is returned by Submit after Run has returned.
	ErrStopped = errors.New("scheduler is stopped")
)

// Publisher receives every event a job emits
type Publisher interface {
	Publish(ctx context.Context, event protocol.Event)
}

// Hook observes terminal outcomes
type Hook func(outcome Outcome)

// Config configures the worker pool
type Config struct {
	Workers     int
	MaxInFlight int
}

// Scheduler is a pool of workers sharing one task queue
type Scheduler struct {
	config    Config
	tasks     chan *Job
	slots     chan struct{}
	publisher Publisher
	hooks     []Hook
	now       func() time.Time
	log       *zap.Logger

	mu      sync.RWMutex
	stopped bool
}

// New creates a scheduler. Hooks run on the worker goroutine after each job's
// terminal event.
func New(config Config, publisher Publisher, log *zap.Logger, hooks ...Hook) *Scheduler {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.MaxInFlight < 1 {
		config.MaxInFlight = 1
	}

	return &Scheduler{
		config:    config,
		tasks:     make(chan *Job, config.MaxInFlight),
		slots:     make(chan struct{}, config.MaxInFlight),
		publisher: publisher,
		hooks:     hooks,
		now:       time.Now,
		log:       log,
	}
}

// Submit admits job and queues its first task. It never blocks.
func (s *Scheduler) Submit(job *Job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrStopped
	}

	select {
	case s.slots <- struct{}{}:
	default:
		return ErrBusy
	}

	if job.ChunkSize < 1 {
		job.ChunkSize = 1
	}
	job.names = protocol.NamesFor(job.Kind)
	if job.ctx == nil {
		job.ctx, job.cancel = context.WithCancel(context.Background())
	}
	job.startedAt = s.now()

	// Holding a slot guarantees room in the queue.
	s.tasks <- job

	s.log.Info("Job admitted",
		zap.String("request_id", job.RequestID),
		zap.String("kind", string(job.Kind)),
		zap.Int("chunk_size", job.ChunkSize),
		zap.Int("in_flight", len(s.slots)))

	return nil
}

// InFlight returns the number of admitted jobs that have not finished
func (s *Scheduler) InFlight() int {
	return len(s.slots)
}

// Run starts the workers and blocks until ctx is done. Jobs still queued at
// that point fail with the context error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Scheduler starting",
		zap.Int("workers", s.config.Workers),
		zap.Int("max_in_flight", s.config.MaxInFlight))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.config.Workers; i++ {
		g.Go(func() error {
			s.work(gctx)
			return nil
		})
	}

	err := g.Wait()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.drain(ctx)

	s.log.Info("Scheduler stopped")
	return err
}

func (s *Scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.tasks:
			if s.step(ctx, job) {
				continue
			}
			// Yield: the job goes to the back of the queue.
			s.tasks <- job
		}
	}
}

func (s *Scheduler) drain(ctx context.Context) {
	for {
		select {
		case job := <-s.tasks:
			s.fail(ctx, job, ctx.Err())
		default:
			return
		}
	}
}

// step runs one task of job and reports whether the job is finished
func (s *Scheduler) step(ctx context.Context, job *Job) bool {
	if err := ctx.Err(); err != nil {
		s.fail(ctx, job, err)
		return true
	}
	if err := job.ctx.Err(); err != nil {
		s.fail(ctx, job, err)
		return true
	}

	if !job.opened {
		total, err := s.open(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			s.fail(ctx, job, err)
			return true
		}
		if total < 0 {
			total = 0
		}
		job.opened = true
		job.total = total

		if total == 0 {
			s.publishProgress(ctx, job)
			s.complete(ctx, job)
			return true
		}
	}

	to := min(job.processed+job.ChunkSize, job.total)
	rows, err := job.Adapter.Produce(job.processed, to)
	if err != nil {
		s.fail(ctx, job, err)
		return true
	}
	job.rows = append(job.rows, rows...)
	job.processed = to

	s.publishProgress(ctx, job)

	if job.processed >= job.total {
		s.complete(ctx, job)
		return true
	}
	return false
}

// open runs the adapter's one-off I/O on a context that ends with either the
// job or the scheduler.
func (s *Scheduler) open(ctx context.Context, job *Job) (int, error) {
	openCtx, cancel := context.WithCancel(job.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return job.Adapter.Open(openCtx)
}

func (s *Scheduler) publishProgress(ctx context.Context, job *Job) {
	s.publisher.Publish(ctx, &protocol.ProgressEvent{
		Type:      job.names.Progress,
		RequestID: job.RequestID,
		Progress:  protocol.Progress(job.processed, job.total),
		Processed: job.processed,
		Total:     job.total,
	})
}

func (s *Scheduler) complete(ctx context.Context, job *Job) {
	rows := job.rows
	if rows == nil {
		rows = []domain.Row{}
	}
	job.rows = nil

	s.publisher.Publish(ctx, &protocol.CompleteEvent{
		Type:      job.names.Complete,
		RequestID: job.RequestID,
		Data:      rows,
	})

	s.log.Info("Job completed",
		zap.String("request_id", job.RequestID),
		zap.String("kind", string(job.Kind)),
		zap.Int("rows", len(rows)),
		zap.Int("total", job.total))

	s.finish(job, Outcome{Status: domain.RunCompleted, Rows: len(rows)})
}

func (s *Scheduler) fail(ctx context.Context, job *Job, err error) {
	job.rows = nil

	s.publisher.Publish(ctx, &protocol.ErrorEvent{
		Type:      job.names.Error,
		RequestID: job.RequestID,
		Error:     err.Error(),
	})

	s.log.Warn("Job failed",
		zap.String("request_id", job.RequestID),
		zap.String("kind", string(job.Kind)),
		zap.Int("processed", job.processed),
		zap.Error(err))

	s.finish(job, Outcome{Status: domain.RunFailed, Err: err})
}

func (s *Scheduler) finish(job *Job, outcome Outcome) {
	job.cancel()
	<-s.slots

	outcome.RequestID = job.RequestID
	outcome.Kind = job.Kind
	outcome.Total = job.total
	outcome.ChunkSize = job.ChunkSize
	outcome.StartedAt = job.startedAt
	outcome.FinishedAt = s.now()

	if job.OnDone != nil {
		job.OnDone()
	}
	for _, hook := range s.hooks {
		hook(outcome)
	}
}
