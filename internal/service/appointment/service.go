package appointment

import (
	"context"

	"github.com/jwalitptl/intake-api/internal/format"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// EventPublisher receives an event after every successful write
type EventPublisher interface {
	Publish(ctx context.Context, event model.AppointmentEvent) error
}

type AppointmentServicer interface {
	CreateAppointment(ctx context.Context, userID string, form model.AppointmentForm) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id, timeZone string) (*View, error)
	UpdateAppointment(ctx context.Context, id string, req model.UpdateAppointmentRequest) (*model.Appointment, error)
	ListRecent(ctx context.Context, limit int) (model.AppointmentList, error)
}

// View is an appointment with its schedule rendered for display
type View struct {
	*model.Appointment
	TimeZone          string                   `json:"timeZone"`
	FormattedSchedule format.FormattedDateTime `json:"formattedSchedule"`
}

type Service struct {
	repo      repository.AppointmentRepository
	patients  repository.PatientRepository
	schema    *validation.Schema
	publisher EventPublisher
	log       *logger.Logger
}

func NewService(repo repository.AppointmentRepository, patients repository.PatientRepository, schema *validation.Schema, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		schema:    schema,
		publisher: publisher,
		log:       log,
	}
}

// CreateAppointment books a pending appointment for the patient registered
// by userID.
func (s *Service) CreateAppointment(ctx context.Context, userID string, form model.AppointmentForm) (*model.Appointment, error) {
	values, fieldErrs := s.schema.ValidateAppointment(model.IntentCreate, form)
	if len(fieldErrs) > 0 {
		return nil, errors.Validation(fieldErrs)
	}

	patient, err := s.patients.GetPatientByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to get patient", "user_id", userID)
		}
		return nil, errors.FromGateway("patient", "failed to create appointment", err)
	}

	record := model.AppointmentRecord{
		UserID:           userID,
		PatientID:        patient.ID,
		PrimaryPhysician: values.PrimaryPhysician,
		Schedule:         values.Schedule,
		Reason:           values.Reason,
		Note:             values.Note,
		Status:           model.ResolveStatus(model.IntentCreate),
	}

	appointment, err := s.repo.CreateAppointment(ctx, record)
	if err != nil {
		s.log.Error(err, "failed to create appointment", "user_id", userID)
		return nil, errors.FromGateway("appointment", "failed to create appointment", err)
	}

	s.publish(ctx, model.EventAppointmentCreated, appointment, "")
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, id, timeZone string) (*View, error) {
	loc, err := format.LoadTimeZone(timeZone)
	if err != nil {
		return nil, errors.Validation(map[string]string{"timeZone": "Time zone is not recognised"})
	}

	appointment, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to get appointment", "appointment_id", id)
		}
		return nil, errors.FromGateway("appointment", "failed to get appointment", err)
	}

	return &View{
		Appointment:       appointment,
		TimeZone:          loc.String(),
		FormattedSchedule: format.FormatDateTime(appointment.Schedule, loc),
	}, nil
}

// UpdateAppointment schedules or cancels an appointment. Only the fields the
// intent owns are written; everything else is carried over by the gateway.
func (s *Service) UpdateAppointment(ctx context.Context, id string, req model.UpdateAppointmentRequest) (*model.Appointment, error) {
	intent, ok := model.ParseIntent(req.Type)
	if !ok || intent == model.IntentCreate {
		return nil, errors.Validation(map[string]string{"type": "Type must be schedule or cancel"})
	}

	loc, err := format.LoadTimeZone(req.TimeZone)
	if err != nil {
		return nil, errors.Validation(map[string]string{"timeZone": "Time zone is not recognised"})
	}

	values, fieldErrs := s.schema.ValidateAppointment(intent, req.Appointment)
	if len(fieldErrs) > 0 {
		return nil, errors.Validation(fieldErrs)
	}

	appointment, err := s.repo.UpdateAppointment(ctx, id, model.NewAppointmentUpdate(intent, values))
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to update appointment", "appointment_id", id, "type", req.Type)
		}
		return nil, errors.FromGateway("appointment", "failed to update appointment", err)
	}

	eventType := model.EventAppointmentScheduled
	if intent == model.IntentCancel {
		eventType = model.EventAppointmentCancelled
	}
	if appointment.UserID == "" {
		appointment.UserID = req.UserID
	}
	s.publish(ctx, eventType, appointment, loc.String())

	s.log.Info("appointment updated", "appointment_id", id, "status", string(appointment.Status))
	return appointment, nil
}

// ListRecent returns the newest appointments with their status counts.
func (s *Service) ListRecent(ctx context.Context, limit int) (model.AppointmentList, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	appointments, err := s.repo.ListAppointments(ctx, limit)
	if err != nil {
		s.log.Error(err, "failed to list appointments")
		return model.AppointmentList{}, errors.FromGateway("appointment", "failed to list appointments", err)
	}
	return model.NewAppointmentList(appointments), nil
}

// publish never fails the write that produced the event.
func (s *Service) publish(ctx context.Context, eventType model.EventType, a *model.Appointment, timeZone string) {
	if s.publisher == nil {
		return
	}

	event := model.AppointmentEvent{
		Type:             eventType,
		AppointmentID:    a.ID,
		UserID:           a.UserID,
		PrimaryPhysician: a.PrimaryPhysician,
		Schedule:         a.Schedule,
		TimeZone:         timeZone,
	}
	if a.CancellationReason != nil {
		event.CancellationReason = *a.CancellationReason
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error(err, "failed to publish appointment event", "appointment_id", a.ID, "type", string(eventType))
	}
}
