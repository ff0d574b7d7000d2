package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDeliversJSON(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, "appointments")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "appointments", map[string]string{"type": "appointment.cancelled"}))
	require.NoError(t, b.Publish(ctx, "other", map[string]string{"type": "ignored"}))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"type":"appointment.cancelled"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Empty(t, msgs)
}

func TestMemoryBrokerClosed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "appointments", "x"), ErrClosed)
	_, err := b.Subscribe(context.Background(), "appointments")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConsumerReportsHandlerErrors(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	var reported []error
	consumer := NewConsumer(b, func(err error) { reported = append(reported, err) })

	ctx, cancel := context.WithCancel(context.Background())
	handled := make(chan string, 2)
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, "appointments", func(_ context.Context, payload []byte) error {
			handled <- string(payload)
			if string(payload) == `"bad"` {
				return errors.New("cannot handle")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.subs["appointments"]) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "appointments", "bad"))
	require.NoError(t, b.Publish(ctx, "appointments", "good"))

	assert.Equal(t, `"bad"`, <-handled)
	assert.Equal(t, `"good"`, <-handled)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Len(t, reported, 1)
}

func TestConsumeSeesMessagesPublishedBeforeStart(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, "appointments")
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "appointments", map[string]string{"id": "a-1"}))

	got := make(chan []byte, 1)
	go func() {
		_ = NewConsumer(b, nil).Consume(ctx, msgs, func(_ context.Context, payload []byte) error {
			got <- payload
			return nil
		})
	}()

	select {
	case msg := <-got:
		assert.JSONEq(t, `{"id":"a-1"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message published before the consumer started was lost")
	}
}
