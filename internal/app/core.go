// Package app assembles the ingestion engine shared by the API and the consumer.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/broadcast"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/config"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/repository"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/router"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/runlog"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/scheduler"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/source"
)

// Core wires the scheduler, its event broadcaster, the request router and the
// run log together.
type Core struct {
	Events    *broadcast.Broadcaster
	Scheduler *scheduler.Scheduler
	Router    *router.Router
	recorder  *runlog.Recorder
	log       *zap.Logger
}

// NewFetcher builds the rate-limited HTTP fetcher used by API requests
func NewFetcher(cfg config.Ingestion) *source.HTTPFetcher {
	return source.NewHTTPFetcher(source.HTTPFetcherConfig{
		Timeout:      time.Duration(cfg.FetchTimeoutSec) * time.Second,
		RateLimit:    cfg.FetchRateLimit,
		RateBurst:    cfg.FetchRateBurst,
		MaxBodyBytes: cfg.MaxFetchBytes,
	})
}

// NewCore creates the engine. Finished runs are written to repo.
func NewCore(cfg *config.Config, repo repository.RunRepository, fetcher source.Fetcher, log *zap.Logger) *Core {
	events := broadcast.New(log)

	writer := runlog.NewBatchWriter(repo, runlog.BatchWriterConfig{
		MaxBatchSize: cfg.RunLog.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.RunLog.BatchTimeoutSec) * time.Second,
	}, log)
	recorder := runlog.NewRecorder(writer, cfg.RunLog.Buffer, log)

	sched := scheduler.New(scheduler.Config{
		Workers:     cfg.Ingestion.Workers,
		MaxInFlight: cfg.Ingestion.MaxInFlight,
	}, events, log, recorder.Record)

	r := router.New(router.Config{
		DefaultChunkSize: cfg.Ingestion.DefaultChunkSize,
		Seed:             cfg.Ingestion.Seed,
		MaxCSVBytes:      cfg.Ingestion.MaxCSVBytes,
	}, sched, fetcher, log)

	return &Core{
		Events:    events,
		Scheduler: sched,
		Router:    r,
		recorder:  recorder,
		log:       log,
	}
}

// Run drives the scheduler until ctx is done. The run log keeps accepting
// until the scheduler has failed its queued jobs, then flushes.
func (c *Core) Run(ctx context.Context) error {
	runLogCtx, stopRunLog := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRunLog()

	runLogDone := make(chan struct{})
	go func() {
		defer close(runLogDone)
		c.recorder.Start(runLogCtx)
	}()

	err := c.Scheduler.Run(ctx)

	stopRunLog()
	<-runLogDone

	c.log.Info("Ingestion core stopped")
	return err
}
