package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type sentSMS struct {
	userID  string
	content string
}

type fakeSMS struct {
	sent []sentSMS
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, userID, content string) error {
	f.sent = append(f.sent, sentSMS{userID: userID, content: content})
	return f.err
}

type sentEmail struct {
	to      string
	subject string
	content string
}

type fakeEmail struct {
	sent []sentEmail
}

func (f *fakeEmail) SendCustom(_ context.Context, to, subject, content string) error {
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, content: content})
	return nil
}

var schedule = time.Date(2023, 10, 25, 5, 30, 0, 0, time.UTC)

func TestMessageTexts(t *testing.T) {
	_, content, ok, err := Message(model.AppointmentEvent{
		Type:             model.EventAppointmentScheduled,
		PrimaryPhysician: "John Green",
		Schedule:         schedule,
		TimeZone:         "Africa/Nairobi",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Greetings from CarePulse. Your appointment is confirmed for Oct 25, 2023, 8:30 AM with Dr. John Green", content)

	_, content, ok, err = Message(model.AppointmentEvent{
		Type:               model.EventAppointmentCancelled,
		Schedule:           schedule,
		CancellationReason: "Doctor unavailable",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Greetings from CarePulse. We regret to inform that your appointment for Oct 25, 2023, 8:30 AM is cancelled. Reason: Doctor unavailable", content)

	_, _, ok, err = Message(model.AppointmentEvent{Type: model.EventAppointmentCreated, Schedule: schedule})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, _, err = Message(model.AppointmentEvent{Type: model.EventAppointmentScheduled, TimeZone: "Nowhere/City"})
	assert.Error(t, err)
}

func TestHandleEventSendsOnEveryChannel(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	user, err := gw.CreateUser(ctx, model.NewUser{Name: "John", Email: "john@x.com", Phone: "+254700000000"})
	require.NoError(t, err)

	sms := &fakeSMS{}
	mail := &fakeEmail{}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(gw, sms, mail, logger.Nop(), m)

	payload, err := json.Marshal(model.AppointmentEvent{
		Type:             model.EventAppointmentScheduled,
		UserID:           user.ID,
		PrimaryPhysician: "John Green",
		Schedule:         schedule,
		TimeZone:         "Europe/London",
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleEvent(ctx, payload))
	require.Len(t, sms.sent, 1)
	assert.Equal(t, user.ID, sms.sent[0].userID)
	assert.Contains(t, sms.sent[0].content, "Oct 25, 2023, 6:30 AM")

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "john@x.com", mail.sent[0].to)
	assert.Equal(t, subjectScheduled, mail.sent[0].subject)

	var metric dto.Metric
	require.NoError(t, m.NotificationsSent.WithLabelValues("sms", "success").Write(&metric))
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())
}

func TestHandleEventIgnoresCreated(t *testing.T) {
	sms := &fakeSMS{}
	svc := NewService(memory.New(), sms, nil, logger.Nop(), nil)

	payload, _ := json.Marshal(model.AppointmentEvent{Type: model.EventAppointmentCreated, UserID: "u-1"})
	require.NoError(t, svc.HandleEvent(context.Background(), payload))
	assert.Empty(t, sms.sent)
}

func TestHandleEventUnknownUser(t *testing.T) {
	svc := NewService(memory.New(), &fakeSMS{}, nil, logger.Nop(), nil)

	payload, _ := json.Marshal(model.AppointmentEvent{Type: model.EventAppointmentCancelled, UserID: "ghost", Schedule: schedule})
	assert.Error(t, svc.HandleEvent(context.Background(), payload))
}

func TestHandleEventBadPayload(t *testing.T) {
	svc := NewService(memory.New(), nil, nil, logger.Nop(), nil)
	assert.Error(t, svc.HandleEvent(context.Background(), []byte("{not json")))
}

func TestSendTriesEmailAfterSMSFailure(t *testing.T) {
	sms := &fakeSMS{err: fmt.Errorf("provider unavailable")}
	mail := &fakeEmail{}
	svc := NewService(memory.New(), sms, mail, logger.Nop(), nil)

	err := svc.Send(context.Background(), &model.Notification{UserID: "u-1", Phone: "+254700000000", Email: "john@x.com", Content: "hi"})
	assert.Error(t, err)
	assert.Len(t, mail.sent, 1)
}

func TestSendValidates(t *testing.T) {
	svc := NewService(memory.New(), &fakeSMS{}, nil, logger.Nop(), nil)
	assert.Error(t, svc.Send(context.Background(), &model.Notification{Content: "hi"}))
	assert.Error(t, svc.Send(context.Background(), &model.Notification{UserID: "u-1"}))
}
