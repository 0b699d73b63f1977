package kafka

import (
	"encoding/json"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// ProviderImportedMessage represents a provider.imported event from the
// upstream CRM importer. Receiving one means provider service lists changed
// and mappings should be recomputed.
type ProviderImportedMessage struct {
	Type       string    `json:"type"` // "provider.imported"
	ProviderID string    `json:"provider_id"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsProviderImported checks whether the message is a provider.imported event
func (m *IncomingMessage) IsProviderImported() bool {
	if msgType := m.Headers["event_type"]; msgType == "provider.imported" {
		return true
	}

	var evt ProviderImportedMessage
	if err := json.Unmarshal(m.Value, &evt); err == nil {
		return evt.Type == "provider.imported"
	}

	return false
}

// ParseProviderImported parses the message as a provider.imported event
func (m *IncomingMessage) ParseProviderImported() (*ProviderImportedMessage, error) {
	var evt ProviderImportedMessage
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
