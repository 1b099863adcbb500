package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

// Inbound message types
const (
	TypeGenerateData = "GENERATE_DATA"
	TypeFetchAPIData = "FETCH_API_DATA"
	TypeParseCSVData = "PARSE_CSV_DATA"
)

// Message is an inbound ingestion request. Which option fields apply depends on Type.
type Message struct {
	Type      string `json:"type" binding:"required"`
	RequestID string `json:"requestId,omitempty"`
	ChunkSize int    `json:"chunkSize,omitempty"`
	// Seed overrides the configured PRNG seed for this request.
	Seed      *int64 `json:"seed,omitempty"`

	// GENERATE_DATA
	Count int `json:"count,omitempty"`

	// FETCH_API_DATA
	Endpoint  string            `json:"endpoint,omitempty"`
	Method    string            `json:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      json.RawMessage   `json:"body,omitempty"`
	UserCount *int              `json:"userCount,omitempty"`

	// PARSE_CSV_DATA
	File      string `json:"file,omitempty"`
	Delimiter string `json:"delimiter,omitempty"`
	HasHeader *bool  `json:"hasHeader,omitempty"`
}

// Kind maps the message type to the adapter that serves it
func (m *Message) Kind() (domain.Kind, error) {
	switch m.Type {
	case TypeGenerateData:
		return domain.KindSynthetic, nil
	case TypeFetchAPIData:
		return domain.KindAPI, nil
	case TypeParseCSVData:
		return domain.KindCSV, nil
	default:
		return "", fmt.Errorf("unknown message type %q", m.Type)
	}
}

// Decode parses a raw inbound message body
func Decode(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return &msg, nil
}
