package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/intake-api/internal/email"
	"github.com/jwalitptl/intake-api/internal/format"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

const (
	channelEmail = model.NotificationChannelEmail
	channelSMS   = model.NotificationChannelSMS

	subjectScheduled = "Your appointment is confirmed"
	subjectCancelled = "Your appointment was cancelled"
)

// SMSSender delivers a text message to a user's registered phone
type SMSSender interface {
	SendSMS(ctx context.Context, userID, content string) error
}

type Service interface {
	// HandleEvent decodes an appointment event and notifies its user.
	HandleEvent(ctx context.Context, payload []byte) error
	Send(ctx context.Context, notification *model.Notification) error
}

type service struct {
	users    repository.UserRepository
	sms      SMSSender
	emailSvc email.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewService builds a notifier. sms and emailSvc may each be nil to disable
// that channel.
func NewService(users repository.UserRepository, sms SMSSender, emailSvc email.Service, log *logger.Logger, m *metrics.Metrics) Service {
	return &service{
		users:    users,
		sms:      sms,
		emailSvc: emailSvc,
		log:      log,
		metrics:  m,
	}
}

// Message renders the text sent for an event. ok is false for events that
// do not notify anyone.
func Message(event model.AppointmentEvent) (subject, content string, ok bool, err error) {
	formatted, err := format.FormatDateTimeIn(event.Schedule, event.TimeZone)
	if err != nil {
		return "", "", false, err
	}

	switch event.Type {
	case model.EventAppointmentScheduled:
		return subjectScheduled, fmt.Sprintf("Greetings from CarePulse. Your appointment is confirmed for %s with Dr. %s",
			formatted.DateTime, event.PrimaryPhysician), true, nil
	case model.EventAppointmentCancelled:
		return subjectCancelled, fmt.Sprintf("Greetings from CarePulse. We regret to inform that your appointment for %s is cancelled. Reason: %s",
			formatted.DateTime, event.CancellationReason), true, nil
	}
	return "", "", false, nil
}

func (s *service) HandleEvent(ctx context.Context, payload []byte) error {
	var event model.AppointmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode appointment event: %w", err)
	}

	subject, content, ok, err := Message(event)
	if err != nil {
		return fmt.Errorf("failed to render notification for %s: %w", event.AppointmentID, err)
	}
	if !ok {
		return nil
	}

	user, err := s.users.GetUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user %s: %w", event.UserID, err)
	}

	return s.Send(ctx, &model.Notification{
		UserID:  user.ID,
		Phone:   user.Phone,
		Email:   user.Email,
		Subject: subject,
		Content: content,
	})
}

// Send delivers notification on every enabled channel the user can be
// reached on. The last failure is returned after all channels were tried.
func (s *service) Send(ctx context.Context, notification *model.Notification) error {
	if err := s.validateNotification(notification); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	var lastErr error
	if s.sms != nil && notification.Phone != "" {
		if err := s.sendSMS(ctx, notification); err != nil {
			lastErr = err
		}
	}
	if s.emailSvc != nil && notification.Email != "" {
		if err := s.sendEmail(ctx, notification); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *service) sendSMS(ctx context.Context, notification *model.Notification) error {
	err := s.sms.SendSMS(ctx, notification.UserID, notification.Content)
	s.record(channelSMS, notification.UserID, err)
	return err
}

func (s *service) sendEmail(ctx context.Context, notification *model.Notification) error {
	err := s.emailSvc.SendCustom(ctx, notification.Email, notification.Subject, notification.Content)
	s.record(channelEmail, notification.UserID, err)
	return err
}

func (s *service) record(channel model.NotificationChannel, userID string, err error) {
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(string(channel), metrics.Status(err)).Inc()
	}
	if err != nil {
		s.log.Error(err, "failed to send notification", "channel", string(channel), "user_id", userID)
		return
	}
	s.log.Info("notification sent", "channel", string(channel), "user_id", userID)
}

func (s *service) validateNotification(notification *model.Notification) error {
	if notification.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if notification.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}
