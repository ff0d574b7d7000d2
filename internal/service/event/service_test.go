package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

func TestPublishStampsEvent(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := broker.Subscribe(ctx, Channel)
	require.NoError(t, err)

	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewEventService(broker, logger.Nop(), m)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Publish(ctx, model.AppointmentEvent{
		Type:          model.EventAppointmentScheduled,
		AppointmentID: "a-1",
		UserID:        "u-1",
	}))

	select {
	case payload := <-msgs:
		var got model.AppointmentEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "a-1", got.AppointmentID)
		assert.Equal(t, model.EventAppointmentScheduled, got.Type)
		assert.True(t, got.OccurredAt.Equal(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	var metric dto.Metric
	require.NoError(t, m.EventsPublished.WithLabelValues("appointment.scheduled", "success").Write(&metric))
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())
}

func TestPublishClosedBroker(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	require.NoError(t, broker.Close())

	svc := NewEventService(broker, logger.Nop(), nil)
	err := svc.Publish(context.Background(), model.AppointmentEvent{Type: model.EventAppointmentCreated})
	assert.ErrorIs(t, err, messaging.ErrClosed)
}
