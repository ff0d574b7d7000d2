package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

// Channel carries every appointment event
const Channel = "appointments"

type EventService struct {
	broker  messaging.Broker
	channel string
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEventService(broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *EventService {
	return &EventService{
		broker:  broker,
		channel: Channel,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish stamps the event with an id and time and sends it to the broker.
func (s *EventService) Publish(ctx context.Context, event model.AppointmentEvent) error {
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()

	err := s.broker.Publish(ctx, s.channel, event)
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(string(event.Type), metrics.Status(err)).Inc()
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	s.log.Debug("event published", "event_id", event.ID, "type", string(event.Type), "appointment_id", event.AppointmentID)
	return nil
}
