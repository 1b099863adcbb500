// Package router turns inbound messages into scheduled ingestion jobs.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/prng"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/scheduler"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/source"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/synth"
)

const (
	defaultMethod    = http.MethodGet
	defaultUserCount = 10
	defaultDelimiter = ","
)

var (
	// ErrInvalidRequest marks a message that can never be served.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDuplicateRequest marks a request id that is already in flight.
	ErrDuplicateRequest = errors.New("request id already in flight")
	// ErrSchedulerBusy marks a request rejected because the scheduler is full.
	ErrSchedulerBusy = errors.New("scheduler busy")
)

// Submitter admits jobs for execution
type Submitter interface {
	Submit(job *scheduler.Job) error
}

// Config holds the defaults applied to inbound messages
type Config struct {
	DefaultChunkSize int
	Seed             int64
	MaxCSVBytes      int64
}

// Router validates messages, builds their adapter and submits the job. It
// tracks in-flight request ids so that a second request with the same id is
// rejected instead of interleaving with the first.
type Router struct {
	config    Config
	scheduler Submitter
	fetcher   source.Fetcher
	now       func() time.Time
	log       *zap.Logger

	mu       sync.Mutex
	inFlight map[string]*scheduler.Job
}

// New creates a router
func New(config Config, sched Submitter, fetcher source.Fetcher, log *zap.Logger) *Router {
	if config.DefaultChunkSize < 1 {
		config.DefaultChunkSize = 1000
	}

	return &Router{
		config:    config,
		scheduler: sched,
		fetcher:   fetcher,
		now:       time.Now,
		log:       log,
		inFlight:  make(map[string]*scheduler.Job),
	}
}

// Dispatch schedules msg. CSV content is taken from the message's file field.
func (r *Router) Dispatch(msg *protocol.Message) error {
	return r.dispatch(msg, nil)
}

// DispatchCSV schedules a PARSE_CSV_DATA message whose content comes from open
func (r *Router) DispatchCSV(msg *protocol.Message, open source.ContentOpener) error {
	if msg.Type != protocol.TypeParseCSVData {
		return fmt.Errorf("%w: expected %s, got %q", ErrInvalidRequest, protocol.TypeParseCSVData, msg.Type)
	}
	return r.dispatch(msg, open)
}

// Cancel stops the in-flight request with the given id. It reports whether
// such a request existed.
func (r *Router) Cancel(requestID string) bool {
	r.mu.Lock()
	job, ok := r.inFlight[requestID]
	r.mu.Unlock()

	if !ok {
		return false
	}

	job.Cancel()
	r.log.Info("Request cancelled", zap.String("request_id", requestID))
	return true
}

func (r *Router) dispatch(msg *protocol.Message, open source.ContentOpener) error {
	kind, err := msg.Kind()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	adapter, err := r.buildAdapter(kind, msg, open)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	chunkSize := msg.ChunkSize
	if chunkSize < 1 {
		chunkSize = r.config.DefaultChunkSize
	}

	job := scheduler.NewJob(msg.RequestID, kind, adapter, chunkSize)

	if msg.RequestID != "" {
		if err := r.track(job); err != nil {
			return err
		}
		job.OnDone = func() { r.untrack(job) }
	}

	if err := r.scheduler.Submit(job); err != nil {
		r.untrack(job)
		if errors.Is(err, scheduler.ErrBusy) {
			return fmt.Errorf("%w: %w", ErrSchedulerBusy, err)
		}
		return fmt.Errorf("failed to submit request: %w", err)
	}

	r.log.Info("Request dispatched",
		zap.String("request_id", msg.RequestID),
		zap.String("type", msg.Type),
		zap.Int("chunk_size", chunkSize))

	return nil
}

func (r *Router) buildAdapter(kind domain.Kind, msg *protocol.Message, open source.ContentOpener) (source.Adapter, error) {
	seed := r.config.Seed
	if msg.Seed != nil {
		seed = *msg.Seed
	}

	created := r.now()
	clock := func() time.Time { return created }
	synthesizer := synth.New(prng.New(seed), created)

	switch kind {
	case domain.KindSynthetic:
		return source.NewSynthetic(msg.Count, synthesizer), nil

	case domain.KindAPI:
		method := strings.ToUpper(msg.Method)
		if method == "" {
			method = defaultMethod
		}
		userCount := defaultUserCount
		if msg.UserCount != nil {
			userCount = *msg.UserCount
		}
		return source.NewAPI(r.fetcher, source.APIOptions{
			Request: &source.FetchRequest{
				URL:     msg.Endpoint,
				Method:  method,
				Headers: msg.Headers,
				Body:    msg.Body,
			},
			UserCount: userCount,
		}, synthesizer, clock)

	case domain.KindCSV:
		if open == nil {
			content := msg.File
			open = func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(content)), nil
			}
		}
		delimiter := msg.Delimiter
		if delimiter == "" {
			delimiter = defaultDelimiter
		}
		hasHeader := true
		if msg.HasHeader != nil {
			hasHeader = *msg.HasHeader
		}
		return source.NewCSV(source.CSVOptions{
			Open:      open,
			Delimiter: delimiter,
			HasHeader: hasHeader,
			MaxBytes:  r.config.MaxCSVBytes,
		}, synthesizer, clock)

	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
}

func (r *Router) track(job *scheduler.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[job.RequestID]; ok {
		r.log.Warn("Duplicate request rejected", zap.String("request_id", job.RequestID))
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, job.RequestID)
	}
	r.inFlight[job.RequestID] = job
	return nil
}

// untrack forgets job, leaving a newer job with the same id alone
func (r *Router) untrack(job *scheduler.Job) {
	if job.RequestID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[job.RequestID] == job {
		delete(r.inFlight, job.RequestID)
	}
}
