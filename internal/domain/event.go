package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// IngestMessage is the JSON payload carried by source-topic messages.
type IngestMessage struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// ParseIngestMessage decodes a source-topic payload and requires a non-blank text.
func ParseIngestMessage(value []byte) (IngestMessage, error) {
	var msg IngestMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return IngestMessage{}, fmt.Errorf("decode ingest message: %w", err)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return IngestMessage{}, errors.New("ingest message has no text")
	}
	return msg, nil
}
