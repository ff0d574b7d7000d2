package validation

import (
	"fmt"
	"time"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

// FieldErrors is returned for any input that fails its rules
type FieldErrors = validator.FieldErrors

const scheduleRule = "datetime=" + time.RFC3339

type fieldRule struct {
	name  string
	value func(model.AppointmentForm) string
	rules string
}

func physicianOf(f model.AppointmentForm) string { return f.PrimaryPhysician }
func scheduleOf(f model.AppointmentForm) string { return f.Schedule }
func reasonOf(f model.AppointmentForm) string { return f.Reason }
func noteOf(f model.AppointmentForm) string { return f.Note }
func cancellationOf(f model.AppointmentForm) string { return f.CancellationReason }

var appointmentRules = map[model.Intent][]fieldRule{
	model.IntentCreate: {
		{"primaryPhysician", physicianOf, "required,physician"},
		{"schedule", scheduleOf, "required," + scheduleRule},
		{"reason", reasonOf, "required,min=2,max=500"},
		{"note", noteOf, "omitempty,max=500"},
	},
	model.IntentSchedule: {
		{"primaryPhysician", physicianOf, "required,physician"},
		{"schedule", scheduleOf, "required," + scheduleRule},
		{"reason", reasonOf, "omitempty,min=2,max=500"},
		{"note", noteOf, "omitempty,max=500"},
	},
	model.IntentCancel: {
		{"primaryPhysician", physicianOf, "omitempty,physician"},
		{"schedule", scheduleOf, "omitempty," + scheduleRule},
		{"reason", reasonOf, "omitempty,min=2,max=500"},
		{"note", noteOf, "omitempty,max=500"},
		{"cancellationReason", cancellationOf, "required,min=2,max=500"},
	},
}

// Schema validates raw forms and converts them to typed values.
type Schema struct {
	v      validator.Validator
	region string
}

func NewSchema(v validator.Validator, region string) *Schema {
	if region == "" {
		region = validator.DefaultRegion
	}
	return &Schema{v: v, region: region}
}

// ValidateUser checks the sign-up form.
func (s *Schema) ValidateUser(req model.CreateUserRequest) (model.NewUser, FieldErrors) {
	if errs := s.v.Struct(req); len(errs) > 0 {
		return model.NewUser{}, errs
	}
	phone, _ := validator.NormalizePhone(req.Phone, s.region)
	return model.NewUser{Name: req.Name, Email: req.Email, Phone: phone}, nil
}

// ValidatePatient checks the registration form. Phone numbers come back in
// E.164 form and the birth date as a time.Time.
func (s *Schema) ValidatePatient(form model.PatientForm) (model.PatientValues, FieldErrors) {
	if errs := s.v.Struct(form); len(errs) > 0 {
		return model.PatientValues{}, errs
	}

	phone, _ := validator.NormalizePhone(form.Phone, s.region)
	emergency, _ := validator.NormalizePhone(form.EmergencyContactNumber, s.region)
	birthDate, _ := validator.ParseDate(form.BirthDate)

	return model.PatientValues{
		Name:                   form.Name,
		Email:                  form.Email,
		Phone:                  phone,
		BirthDate:              birthDate,
		Gender:                 form.Gender,
		Address:                form.Address,
		Occupation:             form.Occupation,
		EmergencyContactName:   form.EmergencyContactName,
		EmergencyContactNumber: emergency,
		PrimaryPhysician:       form.PrimaryPhysician,
		InsuranceProvider:      form.InsuranceProvider,
		InsurancePolicyNumber:  form.InsurancePolicyNumber,
		Allergies:              form.Allergies,
		CurrentMedication:      form.CurrentMedication,
		FamilyMedicalHistory:   form.FamilyMedicalHistory,
		PastMedicalHistory:     form.PastMedicalHistory,
		IdentificationType:     form.IdentificationType,
		IdentificationNumber:   form.IdentificationNumber,
		IdentificationDocument: form.IdentificationDocument,
		PrivacyConsent:         *form.PrivacyConsent,
		TreatmentConsent:       *form.TreatmentConsent,
		DisclosureConsent:      *form.DisclosureConsent,
	}, nil
}

// ValidateAppointment checks form against the rules of intent. An intent
// outside the declared set panics.
func (s *Schema) ValidateAppointment(intent model.Intent, form model.AppointmentForm) (model.AppointmentValues, FieldErrors) {
	rules, ok := appointmentRules[intent]
	if !ok {
		panic(fmt.Sprintf("validation: unknown appointment intent %q", string(intent)))
	}

	var errs FieldErrors
	for _, r := range rules {
		errs = errs.Merge(s.v.Field(r.name, r.value(form), r.rules))
	}
	if len(errs) > 0 {
		return model.AppointmentValues{}, errs
	}

	values := model.AppointmentValues{
		PrimaryPhysician:   form.PrimaryPhysician,
		Reason:             form.Reason,
		Note:               form.Note,
		CancellationReason: form.CancellationReason,
	}
	if form.Schedule != "" {
		values.Schedule, _ = time.Parse(time.RFC3339, form.Schedule)
	}
	return values, nil
}
