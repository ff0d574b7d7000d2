package model

import (
	"time"
)

type EventType string

const (
	EventAppointmentCreated   EventType = "appointment.created"
	EventAppointmentScheduled EventType = "appointment.scheduled"
	EventAppointmentCancelled EventType = "appointment.cancelled"
)

// AppointmentEvent is published after an appointment changes state
type AppointmentEvent struct {
	ID                 string    `json:"id"`
	Type               EventType `json:"type"`
	AppointmentID      string    `json:"appointmentId"`
	UserID             string    `json:"userId"`
	PrimaryPhysician   string    `json:"primaryPhysician"`
	Schedule           time.Time `json:"schedule"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	TimeZone           string    `json:"timeZone,omitempty"`
	OccurredAt         time.Time `json:"occurredAt"`
}

type NotificationChannel string

const (
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
)

// Notification is a message addressed to one user
type Notification struct {
	UserID  string
	Phone   string
	Email   string
	Subject string
	Content string
}
