package messaging

import (
	"context"
)

// Handler processes one message payload
type Handler func(ctx context.Context, payload []byte) error

// Consumer feeds every message on a channel to a handler
type Consumer struct {
	broker  Broker
	onError func(err error)
}

func NewConsumer(broker Broker, onError func(err error)) *Consumer {
	if onError == nil {
		onError = func(error) {}
	}
	return &Consumer{broker: broker, onError: onError}
}

// Run subscribes to channel and consumes it until ctx is done.
func (c *Consumer) Run(ctx context.Context, channel string, handler Handler) error {
	msgs, err := c.broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}
	return c.Consume(ctx, msgs, handler)
}

// Consume blocks until ctx is done or msgs is closed. Handler errors are
// reported and do not stop consumption. Callers that publish right after
// starting a consumer subscribe first and hand the channel over here.
func (c *Consumer) Consume(ctx context.Context, msgs <-chan []byte, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			if err := handler(ctx, msg); err != nil {
				c.onError(err)
			}
		}
	}
}
