package appointment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AppointmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	svc       *Service
	gw        *memory.Gateway
	publisher *recordingPublisher
	userID    string
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	gw := memory.New()

	user, err := gw.CreateUser(ctx, model.NewUser{Name: "John Doe", Email: "john@x.com", Phone: "+254700000000"})
	require.NoError(t, err)
	_, err = gw.CreatePatient(ctx, model.PatientRecord{UserID: user.ID, Name: "John Doe"}, nil)
	require.NoError(t, err)

	v := validator.New(validator.WithPhysicians(model.PhysicianNames(model.DefaultPhysicians)))
	publisher := &recordingPublisher{}
	svc := NewService(gw, gw, validation.NewSchema(v, ""), publisher, logger.Nop())
	return fixture{svc: svc, gw: gw, publisher: publisher, userID: user.ID}
}

func createForm() model.AppointmentForm {
	return model.AppointmentForm{
		PrimaryPhysician: "John Green",
		Schedule:         "2024-07-01T06:00:00Z",
		Reason:           "Annual checkup",
	}
}

func TestCreateAppointmentIsPending(t *testing.T) {
	f := setup(t)

	a, err := f.svc.CreateAppointment(context.Background(), f.userID, createForm())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, a.Status)
	assert.Equal(t, f.userID, a.UserID)
	assert.NotEmpty(t, a.PatientID)
	assert.Nil(t, a.CancellationReason)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, f.publisher.events[0].Type)
}

func TestCreateAppointmentRequiresReason(t *testing.T) {
	f := setup(t)
	form := createForm()
	form.Reason = ""

	_, err := f.svc.CreateAppointment(context.Background(), f.userID, form)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "reason")
	assert.Empty(t, f.publisher.events)
}

func TestCreateAppointmentWithoutPatient(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateAppointment(context.Background(), "no-patient", createForm())
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestCreateAppointmentUnknownPhysician(t *testing.T) {
	f := setup(t)
	form := createForm()
	form.PrimaryPhysician = "Dr. Nobody"

	_, err := f.svc.CreateAppointment(context.Background(), f.userID, form)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "primaryPhysician")
}

func TestCancelAppointment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, f.userID, createForm())
	require.NoError(t, err)

	req := model.UpdateAppointmentRequest{Type: "cancel", TimeZone: "Africa/Nairobi"}
	_, err = f.svc.UpdateAppointment(ctx, created.ID, req)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, map[string]string{"cancellationReason": appErr.Fields["cancellationReason"]}, appErr.Fields)

	req.Appointment.CancellationReason = "Travelling"
	cancelled, err := f.svc.UpdateAppointment(ctx, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "Travelling", *cancelled.CancellationReason)
	assert.Equal(t, created.Reason, cancelled.Reason)
	assert.True(t, created.Schedule.Equal(cancelled.Schedule))
	assert.Equal(t, created.PrimaryPhysician, cancelled.PrimaryPhysician)

	require.Len(t, f.publisher.events, 2)
	event := f.publisher.events[1]
	assert.Equal(t, model.EventAppointmentCancelled, event.Type)
	assert.Equal(t, "Travelling", event.CancellationReason)
	assert.Equal(t, f.userID, event.UserID)
	assert.Equal(t, "Africa/Nairobi", event.TimeZone)
}

func TestScheduleAppointment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, f.userID, createForm())
	require.NoError(t, err)

	scheduled, err := f.svc.UpdateAppointment(ctx, created.ID, model.UpdateAppointmentRequest{
		Type: "schedule",
		Appointment: model.AppointmentForm{
			PrimaryPhysician: "Leila Cameron",
			Schedule:         "2024-07-02T10:30:00Z",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, scheduled.Status)
	assert.Equal(t, "Leila Cameron", scheduled.PrimaryPhysician)
	assert.True(t, scheduled.Schedule.Equal(time.Date(2024, 7, 2, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Annual checkup", scheduled.Reason)

	event := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, model.EventAppointmentScheduled, event.Type)
	assert.Equal(t, "Africa/Nairobi", event.TimeZone)
}

func TestUpdateAppointmentRejectsCreateIntent(t *testing.T) {
	f := setup(t)

	for _, typ := range []string{"create", "", "reschedule"} {
		_, err := f.svc.UpdateAppointment(context.Background(), "a-1", model.UpdateAppointmentRequest{Type: typ})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr), typ)
		assert.Contains(t, appErr.Fields, "type")
	}
}

func TestUpdateAppointmentInvalidTimeZone(t *testing.T) {
	f := setup(t)

	_, err := f.svc.UpdateAppointment(context.Background(), "a-1", model.UpdateAppointmentRequest{
		Type:        "cancel",
		TimeZone:    "Mars/Olympus",
		Appointment: model.AppointmentForm{CancellationReason: "Travelling"},
	})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "timeZone")
}

func TestUpdateMissingAppointment(t *testing.T) {
	f := setup(t)

	_, err := f.svc.UpdateAppointment(context.Background(), "missing", model.UpdateAppointmentRequest{
		Type:        "cancel",
		Appointment: model.AppointmentForm{CancellationReason: "Travelling"},
	})
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := setup(t)
	f.publisher.err = fmt.Errorf("broker down")

	a, err := f.svc.CreateAppointment(context.Background(), f.userID, createForm())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
}

func TestGetAppointmentFormatsSchedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, f.userID, model.AppointmentForm{
		PrimaryPhysician: "John Green",
		Schedule:         "2023-10-25T05:30:00Z",
		Reason:           "Checkup",
	})
	require.NoError(t, err)

	view, err := f.svc.GetAppointment(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", view.TimeZone)
	assert.Equal(t, "Oct 25, 2023, 8:30 AM", view.FormattedSchedule.DateTime)

	view, err = f.svc.GetAppointment(ctx, created.ID, "Europe/London")
	require.NoError(t, err)
	assert.Equal(t, "6:30 AM", view.FormattedSchedule.TimeOnly)

	_, err = f.svc.GetAppointment(ctx, created.ID, "Not/AZone")
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestListRecentCounts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		a, err := f.svc.CreateAppointment(ctx, f.userID, createForm())
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	_, err := f.svc.UpdateAppointment(ctx, ids[0], model.UpdateAppointmentRequest{
		Type:        "cancel",
		Appointment: model.AppointmentForm{CancellationReason: "Travelling"},
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateAppointment(ctx, ids[1], model.UpdateAppointmentRequest{
		Type:        "schedule",
		Appointment: model.AppointmentForm{PrimaryPhysician: "John Green", Schedule: "2024-07-03T08:00:00Z"},
	})
	require.NoError(t, err)

	list, err := f.svc.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalCount)
	assert.Equal(t, 1, list.PendingCount)
	assert.Equal(t, 1, list.ScheduledCount)
	assert.Equal(t, 1, list.CancelledCount)
	assert.Equal(t, ids[2], list.Documents[0].ID)
}
