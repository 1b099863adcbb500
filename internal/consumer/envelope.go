package consumer

import (
	"context"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

// Envelope wraps an ingestion request with acknowledgment callbacks
type Envelope struct {
	MessageID string
	Message   *protocol.Message
	ack       func(context.Context) error
	nack      func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(messageID string, msg *protocol.Message, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		MessageID: messageID,
		Message:   msg,
		ack:       ack,
		nack:      nack,
	}
}

// Ack removes the message from the queue
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack returns the message to the queue for redelivery
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
