package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Intent is the purpose of an appointment submission
type Intent string

const (
	IntentCreate   Intent = "create"
	IntentSchedule Intent = "schedule"
	IntentCancel   Intent = "cancel"
)

// ParseIntent maps a client-supplied type string onto an Intent.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentCreate, IntentSchedule, IntentCancel:
		return Intent(s), true
	}
	return "", false
}

// ResolveStatus returns the lifecycle state an intent produces. Callers
// must pass one of the declared intents; anything else panics.
func ResolveStatus(intent Intent) AppointmentStatus {
	switch intent {
	case IntentCreate:
		return AppointmentStatusPending
	case IntentSchedule:
		return AppointmentStatusScheduled
	case IntentCancel:
		return AppointmentStatusCancelled
	}
	panic(fmt.Sprintf("model: unknown appointment intent %q", string(intent)))
}

// AppointmentForm is the raw appointment form shared by every intent
type AppointmentForm struct {
	PrimaryPhysician   string `json:"primaryPhysician" form:"primaryPhysician"`
	Schedule           string `json:"schedule" form:"schedule"`
	Reason             string `json:"reason" form:"reason"`
	Note               string `json:"note" form:"note"`
	CancellationReason string `json:"cancellationReason" form:"cancellationReason"`
}

// AppointmentValues is a validated AppointmentForm. Schedule is zero when
// the intent did not require it and none was sent.
type AppointmentValues struct {
	PrimaryPhysician   string
	Schedule           time.Time
	Reason             string
	Note               string
	CancellationReason string
}

// AppointmentRecord is the canonical appointment ready for persistence
type AppointmentRecord struct {
	UserID             string            `json:"userId" db:"user_id"`
	PatientID          string            `json:"patient" db:"patient_id"`
	PrimaryPhysician   string            `json:"primaryPhysician" db:"primary_physician"`
	Schedule           time.Time         `json:"schedule" db:"schedule"`
	Reason             string            `json:"reason" db:"reason"`
	Note               string            `json:"note" db:"note"`
	Status             AppointmentStatus `json:"status" db:"status"`
	CancellationReason *string           `json:"cancellationReason" db:"cancellation_reason"`
}

// Appointment is a stored AppointmentRecord
type Appointment struct {
	Base
	AppointmentRecord
}

// AppointmentUpdate carries the fields an intent is allowed to write. Nil
// fields are left untouched.
type AppointmentUpdate struct {
	Status             AppointmentStatus
	Schedule           *time.Time
	PrimaryPhysician   *string
	CancellationReason *string
}

// NewAppointmentUpdate builds the partial write for a schedule or cancel.
func NewAppointmentUpdate(intent Intent, values AppointmentValues) AppointmentUpdate {
	update := AppointmentUpdate{Status: ResolveStatus(intent)}
	switch intent {
	case IntentSchedule:
		schedule := values.Schedule
		physician := values.PrimaryPhysician
		update.Schedule = &schedule
		update.PrimaryPhysician = &physician
	case IntentCancel:
		reason := values.CancellationReason
		update.CancellationReason = &reason
	}
	return update
}

// Apply writes u onto a copy of record.
func (u AppointmentUpdate) Apply(record AppointmentRecord) AppointmentRecord {
	record.Status = u.Status
	if u.Schedule != nil {
		record.Schedule = *u.Schedule
	}
	if u.PrimaryPhysician != nil {
		record.PrimaryPhysician = *u.PrimaryPhysician
	}
	if u.CancellationReason != nil {
		reason := *u.CancellationReason
		record.CancellationReason = &reason
	}
	return record
}

// UpdateAppointmentRequest is the admin schedule/cancel body
type UpdateAppointmentRequest struct {
	Type        string          `json:"type"`
	UserID      string          `json:"userId"`
	TimeZone    string          `json:"timeZone"`
	Appointment AppointmentForm `json:"appointment"`
}

// AppointmentCounts tallies appointments by status
type AppointmentCounts struct {
	ScheduledCount int `json:"scheduledCount"`
	PendingCount   int `json:"pendingCount"`
	CancelledCount int `json:"cancelledCount"`
	TotalCount     int `json:"totalCount"`
}

// AppointmentList is the admin dashboard view
type AppointmentList struct {
	AppointmentCounts
	Documents []*Appointment `json:"documents"`
}

// NewAppointmentList counts appointments by status.
func NewAppointmentList(appointments []*Appointment) AppointmentList {
	list := AppointmentList{Documents: appointments}
	if list.Documents == nil {
		list.Documents = []*Appointment{}
	}
	for _, a := range appointments {
		switch a.Status {
		case AppointmentStatusScheduled:
			list.ScheduledCount++
		case AppointmentStatusPending:
			list.PendingCount++
		case AppointmentStatusCancelled:
			list.CancelledCount++
		}
	}
	list.TotalCount = len(appointments)
	return list
}
