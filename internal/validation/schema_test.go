package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

func newTestSchema() *Schema {
	v := validator.New(
		validator.WithPhysicians(model.PhysicianNames(model.DefaultPhysicians)),
		validator.WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
	)
	return NewSchema(v, "")
}

func yes() *bool { b := true; return &b }
func no() *bool { b := false; return &b }

func validPatientForm() model.PatientForm {
	return model.PatientForm{
		UserID:                 "attacker-id",
		Name:                   "John Doe",
		Email:                  "john@x.com",
		Phone:                  "+254700000000",
		BirthDate:              "1990-01-01",
		Gender:                 model.GenderMale,
		Address:                "14 Moi Avenue, Nairobi",
		Occupation:             "Engineer",
		EmergencyContactName:   "Jane Doe",
		EmergencyContactNumber: "0711 222 333",
		PrimaryPhysician:       "John Green",
		IdentificationType:     "Passport",
		IdentificationNumber:   "A1234567",
		PrivacyConsent:         yes(),
		TreatmentConsent:       yes(),
		DisclosureConsent:      yes(),
	}
}

func TestValidatePatientScenario(t *testing.T) {
	s := newTestSchema()

	values, errs := s.ValidatePatient(validPatientForm())
	require.Empty(t, errs)
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), values.BirthDate)
	assert.Equal(t, "+254711222333", values.EmergencyContactNumber)

	record := model.ToPatientRecord(values, model.User{Base: model.Base{ID: "user-42"}})
	assert.Equal(t, "user-42", record.UserID)
	assert.Nil(t, record.IdentificationDocument)
}

func TestValidatePatientPrivacyConsentFalse(t *testing.T) {
	s := newTestSchema()
	form := validPatientForm()
	form.PrivacyConsent = no()

	_, errs := s.ValidatePatient(form)
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "privacyConsent")
}

func TestValidatePatientMissingConsentKeyedByFlag(t *testing.T) {
	s := newTestSchema()

	for _, flag := range []string{"privacyConsent", "treatmentConsent", "disclosureConsent"} {
		form := validPatientForm()
		switch flag {
		case "privacyConsent":
			form.PrivacyConsent = nil
		case "treatmentConsent":
			form.TreatmentConsent = nil
		case "disclosureConsent":
			form.DisclosureConsent = nil
		}

		_, errs := s.ValidatePatient(form)
		require.Len(t, errs, 1, flag)
		assert.Contains(t, errs, flag)
	}
}

func TestValidatePatientFieldRules(t *testing.T) {
	s := newTestSchema()
	form := validPatientForm()
	form.Email = "john"
	form.Phone = "123"
	form.BirthDate = "2099-01-01"
	form.Gender = "Unknown"
	form.PrimaryPhysician = "Dr. House"
	form.Address = "x"
	form.IdentificationDocument = []model.File{{Name: "a.png"}, {Name: "b.png"}}

	_, errs := s.ValidatePatient(form)
	for _, field := range []string{"email", "phone", "birthDate", "gender", "primaryPhysician", "address", "identificationDocument"} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, "Only 1 identification document may be uploaded", errs["identificationDocument"])
}

func TestValidatePatientRequiredFields(t *testing.T) {
	s := newTestSchema()
	form := validPatientForm()
	form.IdentificationNumber = ""
	form.Occupation = ""

	_, errs := s.ValidatePatient(form)
	assert.Equal(t, "Identification number is required", errs["identificationNumber"])
	assert.Equal(t, "Occupation is required", errs["occupation"])
}

func TestValidateAppointmentCancel(t *testing.T) {
	s := newTestSchema()

	_, errs := s.ValidateAppointment(model.IntentCancel, model.AppointmentForm{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "cancellationReason")

	values, errs := s.ValidateAppointment(model.IntentCancel, model.AppointmentForm{CancellationReason: "Feeling better"})
	require.Empty(t, errs)
	assert.Equal(t, "Feeling better", values.CancellationReason)
	assert.Equal(t, model.AppointmentStatusCancelled, model.ResolveStatus(model.IntentCancel))
}

func TestValidateAppointmentCreate(t *testing.T) {
	s := newTestSchema()

	_, errs := s.ValidateAppointment(model.IntentCreate, model.AppointmentForm{})
	assert.Contains(t, errs, "primaryPhysician")
	assert.Contains(t, errs, "schedule")
	assert.Contains(t, errs, "reason")
	assert.NotContains(t, errs, "cancellationReason")

	values, errs := s.ValidateAppointment(model.IntentCreate, model.AppointmentForm{
		PrimaryPhysician: "Jane Powell",
		Schedule:         "2024-07-01T09:30:00.000Z",
		Reason:           "Annual checkup",
	})
	require.Empty(t, errs)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC), values.Schedule.UTC())
}

func TestValidateAppointmentSchedule(t *testing.T) {
	s := newTestSchema()

	_, errs := s.ValidateAppointment(model.IntentSchedule, model.AppointmentForm{
		PrimaryPhysician: "Jane Powell",
		Schedule:         "next tuesday",
	})
	assert.Equal(t, "Schedule must be a valid date and time", errs["schedule"])

	_, errs = s.ValidateAppointment(model.IntentSchedule, model.AppointmentForm{
		PrimaryPhysician: "Jane Powell",
		Schedule:         "2024-07-01T09:30:00+03:00",
		Reason:           "x",
	})
	assert.Contains(t, errs, "reason")

	_, errs = s.ValidateAppointment(model.IntentSchedule, model.AppointmentForm{
		PrimaryPhysician: "Jane Powell",
		Schedule:         "2024-07-01T09:30:00+03:00",
	})
	assert.Empty(t, errs)
}

func TestValidateAppointmentUnknownIntentPanics(t *testing.T) {
	s := newTestSchema()
	assert.Panics(t, func() {
		s.ValidateAppointment(model.Intent("reschedule"), model.AppointmentForm{})
	})
}

func TestValidateUser(t *testing.T) {
	s := newTestSchema()

	user, errs := s.ValidateUser(model.CreateUserRequest{Name: "John Doe", Email: "john@x.com", Phone: "0700 000 000"})
	require.Empty(t, errs)
	assert.Equal(t, "+254700000000", user.Phone)

	_, errs = s.ValidateUser(model.CreateUserRequest{Name: "J", Email: "john", Phone: ""})
	assert.Len(t, errs, 3)
}
