package consumer

import (
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

// JSONMessageParser implements MessageParser for JSON-encoded ingestion requests
type JSONMessageParser struct{}

// NewJSONMessageParser creates a new JSON message parser
func NewJSONMessageParser() *JSONMessageParser {
	return &JSONMessageParser{}
}

// Parse decodes a message body. The type is validated later by the router.
func (p *JSONMessageParser) Parse(body []byte) (*protocol.Message, error) {
	return protocol.Decode(body)
}
