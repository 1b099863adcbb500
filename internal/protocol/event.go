package protocol

import (
	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

// Event is an outbound notification. Every event carries the id of the request
// that produced it.
type Event interface {
	EventType() string
	EventRequestID() string
	Terminal() bool
}

// ProgressEvent is published after every chunk
type ProgressEvent struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId,omitempty"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
}

// CompleteEvent carries the full, ordered result of a request
type CompleteEvent struct {
	Type      string       `json:"type"`
	RequestID string       `json:"requestId,omitempty"`
	Data      []domain.Row `json:"data"`
}

// ErrorEvent ends a failed request
type ErrorEvent struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error"`
}

func (e *ProgressEvent) EventType() string      { return e.Type }
func (e *ProgressEvent) EventRequestID() string { return e.RequestID }
func (e *ProgressEvent) Terminal() bool         { return false }

func (e *CompleteEvent) EventType() string      { return e.Type }
func (e *CompleteEvent) EventRequestID() string { return e.RequestID }
func (e *CompleteEvent) Terminal() bool         { return true }

func (e *ErrorEvent) EventType() string      { return e.Type }
func (e *ErrorEvent) EventRequestID() string { return e.RequestID }
func (e *ErrorEvent) Terminal() bool         { return true }

// EventNames is the outbound namespace of one request kind
type EventNames struct {
	Progress string
	Complete string
	Error    string
}

var eventNames = map[domain.Kind]EventNames{
	domain.KindSynthetic: {Progress: "PROGRESS", Complete: "COMPLETE", Error: "ERROR"},
	domain.KindAPI:       {Progress: "API_PROGRESS", Complete: "API_COMPLETE", Error: "API_ERROR"},
	domain.KindCSV:       {Progress: "CSV_PROGRESS", Complete: "CSV_COMPLETE", Error: "CSV_ERROR"},
}

// NamesFor returns the event names used by kind
func NamesFor(kind domain.Kind) EventNames {
	return eventNames[kind]
}

// Progress computes the percentage for processed/total. A request with nothing
// to process is reported as done.
func Progress(processed, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(processed) / float64(total) * 100
}
