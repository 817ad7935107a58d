package mqtt

import (
	"context"
)

// MessageHandler processes one received message.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is a reconnecting MQTT client.
type Client interface {
	// Start begins connecting in the background. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for a topic filter. Filters survive reconnects.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	Unsubscribe(ctx context.Context, topic string) error

	AwaitConnection(ctx context.Context) error

	IsConnected() bool
}
