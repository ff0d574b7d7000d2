package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
)

const patientColumns = `
	id, user_id, name, email, phone, birth_date, gender, address, occupation,
	emergency_contact_name, emergency_contact_number, primary_physician,
	insurance_provider, insurance_policy_number, allergies, current_medication,
	family_medical_history, past_medical_history, identification_type,
	identification_number, identification_document_id, identification_document_url,
	privacy_consent, treatment_consent, disclosure_consent, created_at, updated_at`

func (g *Gateway) CreatePatient(ctx context.Context, record model.PatientRecord, file *model.StoredFile) (p *model.Patient, err error) {
	defer func(start time.Time) { g.observe("create_patient", start, err) }(time.Now())

	now := g.now()
	patient := model.Patient{
		Base:          model.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		PatientRecord: record,
	}
	if file != nil {
		id, url := file.ID, file.URL
		patient.IdentificationDocumentID = &id
		patient.IdentificationDocumentURL = &url
	}

	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (
			:id, :user_id, :name, :email, :phone, :birth_date, :gender, :address, :occupation,
			:emergency_contact_name, :emergency_contact_number, :primary_physician,
			:insurance_provider, :insurance_policy_number, :allergies, :current_medication,
			:family_medical_history, :past_medical_history, :identification_type,
			:identification_number, :identification_document_id, :identification_document_url,
			:privacy_consent, :treatment_consent, :disclosure_consent, :created_at, :updated_at
		)
	`
	if _, err := g.db.NamedExecContext(ctx, query, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", translate(err))
	}
	return &patient, nil
}

func (g *Gateway) GetPatientByUserID(ctx context.Context, userID string) (p *model.Patient, err error) {
	defer func(start time.Time) { g.observe("get_patient", start, err) }(time.Now())

	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1 ORDER BY created_at LIMIT 1`
	if err := g.db.GetContext(ctx, &patient, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get patient for user %s: %w", userID, translate(err))
	}
	return &patient, nil
}
