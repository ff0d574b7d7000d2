package patient

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// MockGateway is a mock implementation of the user, patient and file gateways
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateUser(ctx context.Context, user model.NewUser) (*model.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockGateway) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockGateway) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockGateway) CreatePatient(ctx context.Context, record model.PatientRecord, file *model.StoredFile) (*model.Patient, error) {
	args := m.Called(ctx, record, file)
	p, _ := args.Get(0).(*model.Patient)
	return p, args.Error(1)
}

func (m *MockGateway) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*model.Patient)
	return p, args.Error(1)
}

func (m *MockGateway) UploadFile(ctx context.Context, bucketID string, file model.File) (*model.StoredFile, error) {
	args := m.Called(ctx, bucketID, file)
	f, _ := args.Get(0).(*model.StoredFile)
	return f, args.Error(1)
}

func yes() *bool {
	b := true
	return &b
}

func validForm() model.PatientForm {
	return model.PatientForm{
		UserID:                 "spoofed",
		Name:                   "John Doe",
		Email:                  "john@x.com",
		Phone:                  "+254700000000",
		BirthDate:              "1990-01-01",
		Gender:                 model.GenderMale,
		Address:                "14 Moi Avenue, Nairobi",
		Occupation:             "Engineer",
		EmergencyContactName:   "Jane Doe",
		EmergencyContactNumber: "+254711222333",
		PrimaryPhysician:       "John Green",
		IdentificationType:     "Passport",
		IdentificationNumber:   "A1234567",
		PrivacyConsent:         yes(),
		TreatmentConsent:       yes(),
		DisclosureConsent:      yes(),
	}
}

func newSchema() *validation.Schema {
	return validation.NewSchema(validator.New(), "")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func seedUser(t *testing.T, gw *memory.Gateway) *model.User {
	t.Helper()
	u, err := gw.CreateUser(context.Background(), model.NewUser{Name: "John Doe", Email: "john@x.com", Phone: "+254700000000"})
	require.NoError(t, err)
	return u
}

func TestRegisterPatientWithoutDocument(t *testing.T) {
	gw := memory.New()
	user := seedUser(t, gw)
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)

	p, err := svc.RegisterPatient(context.Background(), user.ID, validForm())
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Nil(t, p.IdentificationDocumentID)
	assert.Equal(t, 0, gw.FileCount())

	found, err := svc.GetPatientByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
}

func TestRegisterPatientUploadsDocument(t *testing.T) {
	gw := memory.New()
	user := seedUser(t, gw)
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)

	form := validForm()
	form.IdentificationDocument = []model.File{{Name: "id.png", ContentType: "application/octet-stream", Data: pngHeader}}

	p, err := svc.RegisterPatient(context.Background(), user.ID, form)
	require.NoError(t, err)
	require.NotNil(t, p.IdentificationDocumentID)
	require.NotNil(t, p.IdentificationDocumentURL)
	assert.Equal(t, 1, gw.FileCount())
}

func TestRegisterPatientRejectsOversizedFileLocally(t *testing.T) {
	gw := &MockGateway{}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), m)

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 6*1024*1024)...)
	form := validForm()
	form.IdentificationDocument = []model.File{{Name: "big.png", ContentType: "image/png", Size: int64(len(data)), Data: data}}

	_, err := svc.RegisterPatient(context.Background(), "u-1", form)
	require.Error(t, err)
	assert.Equal(t, errors.KindUpload, errors.KindOf(err))
	assert.True(t, errors.Is(err, errors.ErrFileTooLarge))

	gw.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, float64(1), counterValue(t, m.UploadsRejected.WithLabelValues("too_large")))
}

func TestRegisterPatientRejectsUnsupportedType(t *testing.T) {
	gw := &MockGateway{}
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)

	form := validForm()
	form.IdentificationDocument = []model.File{{Name: "notes.txt", ContentType: "image/png", Data: []byte("plain text, not an image")}}

	_, err := svc.RegisterPatient(context.Background(), "u-1", form)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFileType))
	gw.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestRegisterPatientRejectsSVG(t *testing.T) {
	gw := &MockGateway{}
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	form := validForm()
	form.IdentificationDocument = []model.File{{Name: "id.svg", ContentType: "image/svg+xml", Data: svg}}

	_, err := svc.RegisterPatient(context.Background(), "u-1", form)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFileType))
	gw.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPatientUploadFailureCreatesNoPatient(t *testing.T) {
	gw := &MockGateway{}
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)
	ctx := context.Background()

	gw.On("GetUser", ctx, "u-1").Return(&model.User{Base: model.Base{ID: "u-1"}}, nil)
	gw.On("UploadFile", ctx, "bucket", mock.Anything).Return(nil, fmt.Errorf("connection reset"))

	form := validForm()
	form.IdentificationDocument = []model.File{{Name: "id.png", Data: pngHeader}}

	_, err := svc.RegisterPatient(ctx, "u-1", form)
	require.Error(t, err)
	assert.Equal(t, errors.KindUpload, errors.KindOf(err))
	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPatientUnknownUser(t *testing.T) {
	gw := memory.New()
	svc := NewService(gw, gw, gw, newSchema(), Config{BucketID: "bucket"}, logger.Nop(), nil)

	_, err := svc.RegisterPatient(context.Background(), "missing", validForm())
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	assert.Equal(t, 0, gw.PatientCount())
}

func TestRegisterPatientValidation(t *testing.T) {
	gw := &MockGateway{}
	svc := NewService(gw, gw, gw, newSchema(), Config{}, logger.Nop(), nil)

	form := validForm()
	no := false
	form.PrivacyConsent = &no

	_, err := svc.RegisterPatient(context.Background(), "u-1", form)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 1)
	assert.Contains(t, appErr.Fields, "privacyConsent")
}

func TestGetPatientByUserIDNotFound(t *testing.T) {
	gw := memory.New()
	svc := NewService(gw, gw, gw, newSchema(), Config{}, logger.Nop(), nil)

	_, err := svc.GetPatientByUserID(context.Background(), "nobody")
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}
