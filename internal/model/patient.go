package model

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// File is an uploaded file held in memory until it reaches storage
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// StoredFile is a file accepted by the storage bucket
type StoredFile struct {
	ID          string `json:"$id" db:"id"`
	BucketID    string `json:"bucketId" db:"bucket_id"`
	Name        string `json:"name" db:"name"`
	ContentType string `json:"mimeType" db:"content_type"`
	Size        int64  `json:"sizeOriginal" db:"size"`
	URL         string `json:"url" db:"-"`
}

// PatientForm is the raw registration form. Any client-supplied userId is
// accepted for binding but never read.
type PatientForm struct {
	UserID                 string `json:"userId,omitempty" form:"userId"`
	Name                   string `json:"name" form:"name" validate:"required,min=2,max=50"`
	Email                  string `json:"email" form:"email" validate:"required,email"`
	Phone                  string `json:"phone" form:"phone" validate:"required,phone"`
	BirthDate              string `json:"birthDate" form:"birthDate" validate:"required,pastdate"`
	Gender                 Gender `json:"gender" form:"gender" validate:"required,oneof=Male Female Other"`
	Address                string `json:"address" form:"address" validate:"required,min=5,max=500"`
	Occupation             string `json:"occupation" form:"occupation" validate:"required,min=2,max=500"`
	EmergencyContactName   string `json:"emergencyContactName" form:"emergencyContactName" validate:"required,min=2,max=50"`
	EmergencyContactNumber string `json:"emergencyContactNumber" form:"emergencyContactNumber" validate:"required,phone"`
	PrimaryPhysician       string `json:"primaryPhysician" form:"primaryPhysician" validate:"required,physician"`
	InsuranceProvider      string `json:"insuranceProvider" form:"insuranceProvider" validate:"max=50"`
	InsurancePolicyNumber  string `json:"insurancePolicyNumber" form:"insurancePolicyNumber" validate:"max=50"`
	Allergies              string `json:"allergies" form:"allergies"`
	CurrentMedication      string `json:"currentMedication" form:"currentMedication"`
	FamilyMedicalHistory   string `json:"familyMedicalHistory" form:"familyMedicalHistory"`
	PastMedicalHistory     string `json:"pastMedicalHistory" form:"pastMedicalHistory"`
	IdentificationType     string `json:"identificationType" form:"identificationType" validate:"required"`
	IdentificationNumber   string `json:"identificationNumber" form:"identificationNumber" validate:"required"`
	IdentificationDocument []File `json:"identificationDocument,omitempty" form:"-" validate:"omitempty,max=1"`
	PrivacyConsent         *bool  `json:"privacyConsent" form:"-" validate:"consent"`
	TreatmentConsent       *bool  `json:"treatmentConsent" form:"-" validate:"consent"`
	DisclosureConsent      *bool  `json:"disclosureConsent" form:"-" validate:"consent"`
}

// PatientValues is a PatientForm that passed validation, with typed fields
type PatientValues struct {
	Name                   string
	Email                  string
	Phone                  string
	BirthDate              time.Time
	Gender                 Gender
	Address                string
	Occupation             string
	EmergencyContactName   string
	EmergencyContactNumber string
	PrimaryPhysician       string
	InsuranceProvider      string
	InsurancePolicyNumber  string
	Allergies              string
	CurrentMedication      string
	FamilyMedicalHistory   string
	PastMedicalHistory     string
	IdentificationType     string
	IdentificationNumber   string
	IdentificationDocument []File
	PrivacyConsent         bool
	TreatmentConsent       bool
	DisclosureConsent      bool
}

// PatientRecord is the canonical patient ready for persistence
type PatientRecord struct {
	UserID                 string    `json:"userId" db:"user_id"`
	Name                   string    `json:"name" db:"name"`
	Email                  string    `json:"email" db:"email"`
	Phone                  string    `json:"phone" db:"phone"`
	BirthDate              time.Time `json:"birthDate" db:"birth_date"`
	Gender                 Gender    `json:"gender" db:"gender"`
	Address                string    `json:"address" db:"address"`
	Occupation             string    `json:"occupation" db:"occupation"`
	EmergencyContactName   string    `json:"emergencyContactName" db:"emergency_contact_name"`
	EmergencyContactNumber string    `json:"emergencyContactNumber" db:"emergency_contact_number"`
	PrimaryPhysician       string    `json:"primaryPhysician" db:"primary_physician"`
	InsuranceProvider      string    `json:"insuranceProvider" db:"insurance_provider"`
	InsurancePolicyNumber  string    `json:"insurancePolicyNumber" db:"insurance_policy_number"`
	Allergies              string    `json:"allergies" db:"allergies"`
	CurrentMedication      string    `json:"currentMedication" db:"current_medication"`
	FamilyMedicalHistory   string    `json:"familyMedicalHistory" db:"family_medical_history"`
	PastMedicalHistory     string    `json:"pastMedicalHistory" db:"past_medical_history"`
	IdentificationType     string    `json:"identificationType" db:"identification_type"`
	IdentificationNumber   string    `json:"identificationNumber" db:"identification_number"`
	IdentificationDocument *File     `json:"-" db:"-"`
	PrivacyConsent         bool      `json:"privacyConsent" db:"privacy_consent"`
	TreatmentConsent       bool      `json:"treatmentConsent" db:"treatment_consent"`
	DisclosureConsent      bool      `json:"disclosureConsent" db:"disclosure_consent"`
}

// Patient is a stored PatientRecord
type Patient struct {
	Base
	PatientRecord
	IdentificationDocumentID  *string `json:"identificationDocumentId" db:"identification_document_id"`
	IdentificationDocumentURL *string `json:"identificationDocumentUrl" db:"identification_document_url"`
}

// ToPatientRecord builds the canonical record from validated values. The
// identity always comes from user.
func ToPatientRecord(values PatientValues, user User) PatientRecord {
	record := PatientRecord{
		UserID:                 user.ID,
		Name:                   values.Name,
		Email:                  values.Email,
		Phone:                  values.Phone,
		BirthDate:              values.BirthDate,
		Gender:                 values.Gender,
		Address:                values.Address,
		Occupation:             values.Occupation,
		EmergencyContactName:   values.EmergencyContactName,
		EmergencyContactNumber: values.EmergencyContactNumber,
		PrimaryPhysician:       values.PrimaryPhysician,
		InsuranceProvider:      values.InsuranceProvider,
		InsurancePolicyNumber:  values.InsurancePolicyNumber,
		Allergies:              values.Allergies,
		CurrentMedication:      values.CurrentMedication,
		FamilyMedicalHistory:   values.FamilyMedicalHistory,
		PastMedicalHistory:     values.PastMedicalHistory,
		IdentificationType:     values.IdentificationType,
		IdentificationNumber:   values.IdentificationNumber,
		PrivacyConsent:         values.PrivacyConsent,
		TreatmentConsent:       values.TreatmentConsent,
		DisclosureConsent:      values.DisclosureConsent,
	}
	if len(values.IdentificationDocument) > 0 {
		doc := values.IdentificationDocument[0]
		record.IdentificationDocument = &doc
	}
	return record
}
