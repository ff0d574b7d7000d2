package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
)

const appointmentColumns = `
	id, user_id, patient_id, primary_physician, schedule, reason, note,
	status, cancellation_reason, created_at, updated_at`

func (g *Gateway) CreateAppointment(ctx context.Context, record model.AppointmentRecord) (a *model.Appointment, err error) {
	defer func(start time.Time) { g.observe("create_appointment", start, err) }(time.Now())

	now := g.now()
	appointment := model.Appointment{
		Base:              model.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		AppointmentRecord: record,
	}

	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (
			:id, :user_id, :patient_id, :primary_physician, :schedule, :reason, :note,
			:status, :cancellation_reason, :created_at, :updated_at
		)
	`
	if _, err := g.db.NamedExecContext(ctx, query, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", translate(err))
	}
	return &appointment, nil
}

func (g *Gateway) GetAppointment(ctx context.Context, id string) (a *model.Appointment, err error) {
	defer func(start time.Time) { g.observe("get_appointment", start, err) }(time.Now())

	var appointment model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	if err := g.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, translate(err))
	}
	return &appointment, nil
}

// UpdateAppointment writes the status and whichever fields update carries.
func (g *Gateway) UpdateAppointment(ctx context.Context, id string, update model.AppointmentUpdate) (a *model.Appointment, err error) {
	defer func(start time.Time) { g.observe("update_appointment", start, err) }(time.Now())

	query := `
		UPDATE appointments SET
			status = $2,
			schedule = COALESCE($3::timestamptz, schedule),
			primary_physician = COALESCE($4::text, primary_physician),
			cancellation_reason = COALESCE($5::text, cancellation_reason),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + appointmentColumns

	var appointment model.Appointment
	err = g.db.GetContext(ctx, &appointment, query,
		id,
		update.Status,
		update.Schedule,
		update.PrimaryPhysician,
		update.CancellationReason,
		g.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment %s: %w", id, translate(err))
	}
	return &appointment, nil
}

func (g *Gateway) ListAppointments(ctx context.Context, limit int) (list []*model.Appointment, err error) {
	defer func(start time.Time) { g.observe("list_appointments", start, err) }(time.Now())

	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var appointments []*model.Appointment
	if err := g.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", translate(err))
	}
	return appointments, nil
}

func (g *Gateway) ListPhysicians(ctx context.Context) (list []model.Physician, err error) {
	defer func(start time.Time) { g.observe("list_physicians", start, err) }(time.Now())

	var physicians []model.Physician
	if err := g.db.SelectContext(ctx, &physicians, `SELECT name, image FROM physicians ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list physicians: %w", translate(err))
	}
	return physicians, nil
}

// SeedPhysicians inserts physicians that are not present yet.
func (g *Gateway) SeedPhysicians(ctx context.Context, physicians []model.Physician) error {
	if len(physicians) == 0 {
		return nil
	}
	query := `INSERT INTO physicians (name, image) VALUES (:name, :image) ON CONFLICT (name) DO NOTHING`
	if _, err := g.db.NamedExecContext(ctx, query, physicians); err != nil {
		return fmt.Errorf("failed to seed physicians: %w", err)
	}
	return nil
}
