package model

// FieldKind tags how a form field is rendered. The set is closed.
type FieldKind string

const (
	FieldKindInput      FieldKind = "input"
	FieldKindTextarea   FieldKind = "textarea"
	FieldKindPhoneInput FieldKind = "phoneInput"
	FieldKindCheckbox   FieldKind = "checkbox"
	FieldKindDatePicker FieldKind = "datePicker"
	FieldKindSelect     FieldKind = "select"
	FieldKindSkeleton   FieldKind = "skeleton"
)

// FormField describes one field for the rendering layer
type FormField struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"fieldType"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Required    bool      `json:"required"`
}

// FormSection groups fields under a heading
type FormSection struct {
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

// PatientFormDescriptor is the body of GET /forms/patient
type PatientFormDescriptor struct {
	Sections      []FormSection          `json:"sections"`
	Physicians    []Physician            `json:"physicians"`
	DefaultValues map[string]interface{} `json:"defaultValues"`
}

var GenderOptions = []string{string(GenderMale), string(GenderFemale), string(GenderOther)}

var IdentificationTypes = []string{
	"Birth Certificate",
	"Driver's License",
	"Medical Insurance Card/Policy",
	"Military ID Card",
	"National Identity Card",
	"Passport",
	"Resident Alien Card (Green Card)",
	"Social Security Card",
	"State ID Card",
	"Student ID Card",
	"Voter ID Card",
}

// NewPatientFormDescriptor lays out the registration form with the given
// physician directory.
func NewPatientFormDescriptor(physicians []Physician) PatientFormDescriptor {
	return PatientFormDescriptor{
		Sections: []FormSection{
			{
				Title: "Personal Information",
				Fields: []FormField{
					{Name: "name", Label: "Full name", Kind: FieldKindInput, Placeholder: "John Doe", Required: true},
					{Name: "email", Label: "Email address", Kind: FieldKindInput, Placeholder: "johndoe@gmail.com", Required: true},
					{Name: "phone", Label: "Phone number", Kind: FieldKindPhoneInput, Placeholder: "(555) 123-4567", Required: true},
					{Name: "birthDate", Label: "Date of birth", Kind: FieldKindDatePicker, Required: true},
					{Name: "gender", Label: "Gender", Kind: FieldKindSkeleton, Options: GenderOptions, Required: true},
					{Name: "address", Label: "Address", Kind: FieldKindInput, Placeholder: "14th Street, New York, NY - 5101", Required: true},
					{Name: "occupation", Label: "Occupation", Kind: FieldKindInput, Placeholder: "Software Engineer", Required: true},
					{Name: "emergencyContactName", Label: "Emergency contact name", Kind: FieldKindInput, Placeholder: "Guardian's name", Required: true},
					{Name: "emergencyContactNumber", Label: "Emergency contact number", Kind: FieldKindPhoneInput, Placeholder: "(555) 123-4567", Required: true},
				},
			},
			{
				Title: "Medical Information",
				Fields: []FormField{
					{Name: "primaryPhysician", Label: "Primary care physician", Kind: FieldKindSelect, Placeholder: "Select a physician", Options: PhysicianNames(physicians), Required: true},
					{Name: "insuranceProvider", Label: "Insurance provider", Kind: FieldKindInput, Placeholder: "SHIF"},
					{Name: "insurancePolicyNumber", Label: "Insurance policy number", Kind: FieldKindInput, Placeholder: "ABC123456789"},
					{Name: "allergies", Label: "Allergies (if any)", Kind: FieldKindTextarea, Placeholder: "Peanuts, Penicillin, Pollen"},
					{Name: "currentMedication", Label: "Current medications", Kind: FieldKindTextarea, Placeholder: "Ibuprofen 200mg, Levothyroxine 50mcg"},
					{Name: "familyMedicalHistory", Label: "Family medical history (if relevant)", Kind: FieldKindTextarea, Placeholder: "Mother had brain cancer, Father has hypertension"},
					{Name: "pastMedicalHistory", Label: "Past medical history", Kind: FieldKindTextarea, Placeholder: "Appendectomy in 2015, Asthma diagnosis in childhood"},
				},
			},
			{
				Title: "Identification and Verification",
				Fields: []FormField{
					{Name: "identificationType", Label: "Identification type", Kind: FieldKindSelect, Placeholder: "Select identification type", Options: IdentificationTypes, Required: true},
					{Name: "identificationNumber", Label: "Identification number", Kind: FieldKindInput, Placeholder: "1234567890", Required: true},
					{Name: "identificationDocument", Label: "Scanned copy of identification document", Kind: FieldKindSkeleton},
				},
			},
			{
				Title: "Consent and Privacy",
				Fields: []FormField{
					{Name: "treatmentConsent", Label: "I consent to receive treatment for my health condition.", Kind: FieldKindCheckbox, Required: true},
					{Name: "disclosureConsent", Label: "I consent to the use and disclosure of my health information for treatment purposes.", Kind: FieldKindCheckbox, Required: true},
					{Name: "privacyConsent", Label: "I acknowledge that I have reviewed and agree to the privacy policy", Kind: FieldKindCheckbox, Required: true},
				},
			},
		},
		Physicians: physicians,
		DefaultValues: map[string]interface{}{
			"name":                   "",
			"email":                  "",
			"phone":                  "",
			"birthDate":              "",
			"gender":                 string(GenderMale),
			"address":                "",
			"occupation":             "",
			"emergencyContactName":   "",
			"emergencyContactNumber": "",
			"primaryPhysician":       "",
			"insuranceProvider":      "",
			"insurancePolicyNumber":  "",
			"allergies":              "",
			"currentMedication":      "",
			"familyMedicalHistory":   "",
			"pastMedicalHistory":     "",
			"identificationType":     IdentificationTypes[0],
			"identificationNumber":   "",
			"identificationDocument": []interface{}{},
			"treatmentConsent":       false,
			"disclosureConsent":      false,
			"privacyConsent":         false,
		},
	}
}
