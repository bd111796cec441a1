package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published for every outreach event. The transport
// worker consumes these and writes delivery status back through the callback
// endpoint.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Channels
const (
	ChannelContacts = "outreach.contacts"
)

// Event types
const (
	EventContactRecorded = "contact.recorded"
	EventContactReturned = "contact.returned"
)
