package consumer

import (
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

// MessageParser defines the interface for parsing raw message bytes into ingestion requests
type MessageParser interface {
	Parse(body []byte) (*protocol.Message, error)
}

// Dispatcher schedules an ingestion request
type Dispatcher interface {
	Dispatch(msg *protocol.Message) error
}
