// Package queue defines the message queue abstraction used to hand
// accepted webhook receipts to the processing pipeline. Implementations
// exist for Kafka and in-memory (single process) operation.
package queue

import (
	"context"
)

// Header keys attached to pipeline messages.
const (
	HeaderEndpointID = "endpoint_id"
	HeaderSourceKind = "source_kind"
)

// Message represents a message in the queue.
type Message struct {
	// Key is the partition key. Receipt messages use the endpoint ID so
	// signals from one source are processed in arrival order.
	Key []byte

	// Value is the message payload. Receipt messages carry the webhook
	// event ID; the consumer reloads payload and endpoint from the store.
	Value []byte

	// Headers contains optional metadata.
	Headers map[string]string
}

// ReceiptMessage builds the queue message published when a webhook
// delivery has been accepted and durably recorded.
func ReceiptMessage(webhookEventID, endpointID, sourceKind string) *Message {
	return &Message{
		Key:   []byte(endpointID),
		Value: []byte(webhookEventID),
		Headers: map[string]string{
			HeaderEndpointID: endpointID,
			HeaderSourceKind: sourceKind,
		},
	}
}

// Producer defines the interface for publishing messages to a queue.
// Implementations must be safe for concurrent use.
type Producer interface {
	// Publish sends a message to the queue.
	Publish(ctx context.Context, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// MessageHandler is a callback function for processing consumed messages.
// Return an error to indicate processing failure.
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer defines the interface for consuming messages from a queue.
type Consumer interface {
	// Start begins consuming messages and calls the handler for each one.
	// This is a blocking call that runs until the context is canceled
	// or an unrecoverable error occurs.
	Start(ctx context.Context, handler MessageHandler) error

	// Close stops consuming and releases any resources.
	Close() error
}
