package domain

import "time"

// Kind identifies which source adapter serves a request
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindAPI       Kind = "api"
	KindCSV       Kind = "csv"
)

// RunStatus is the terminal state of an ingestion request
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the log entry of one finished ingestion request
type Run struct {
	RunID      string
	RequestID  string
	Kind       string
	Status     string
	RowCount   uint64
	Total      uint64
	ChunkSize  uint32
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
