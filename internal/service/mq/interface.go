package mq

import "context"

// Producer publishes engine events to the message bus the push-relay
// process consumes. key selects the partition so events for one wallet
// address stay ordered.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error

	Close() error
}
