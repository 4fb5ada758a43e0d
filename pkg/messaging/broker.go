package messaging

import (
	"context"
	"encoding/json"
	"strings"
)

// Channel names published by the outbox worker.
const (
	ChannelRecords  = "frontdesk.records"
	ChannelReceipts = "frontdesk.receipts"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope put on the wire for every outbox event.
type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes one decoded message.
type Handler func(ctx context.Context, msg Message) error

// Consume decodes messages from channel and hands them to fn until ctx is
// done or the subscription closes. Undecodable messages and handler errors
// are reported to onErr and skipped.
func Consume(ctx context.Context, broker Broker, channel string, fn Handler, onErr func(error)) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for raw := range msgChan {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		if err := fn(ctx, msg); err != nil && onErr != nil {
			onErr(err)
		}
	}
	return ctx.Err()
}

// ChannelFor routes an event type onto its broker channel.
func ChannelFor(eventType string) string {
	if strings.HasPrefix(eventType, "RECEIPT") {
		return ChannelReceipts
	}
	return ChannelRecords
}
