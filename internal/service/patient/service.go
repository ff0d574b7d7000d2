package patient

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

// MaxFileSize is the largest identification document accepted
const MaxFileSize = 5 * 1024 * 1024

// AllowedContentTypes are the sniffed types accepted for identification documents
var AllowedContentTypes = []string{
	"image/png",
	"image/jpeg",
	"application/pdf",
}

type PatientServicer interface {
	RegisterPatient(ctx context.Context, userID string, form model.PatientForm) (*model.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error)
}

type Config struct {
	BucketID    string
	MaxFileSize int64
}

type Service struct {
	repo    repository.PatientRepository
	users   repository.UserRepository
	files   repository.FileStorage
	schema  *validation.Schema
	cfg     Config
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.PatientRepository, users repository.UserRepository, files repository.FileStorage, schema *validation.Schema, cfg Config, log *logger.Logger, m *metrics.Metrics) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = MaxFileSize
	}
	return &Service{
		repo:    repo,
		users:   users,
		files:   files,
		schema:  schema,
		cfg:     cfg,
		log:     log,
		metrics: m,
	}
}

// RegisterPatient validates form, uploads the identification document if one
// was sent and then stores the patient. Nothing reaches the gateway until
// the form and the file have passed their local checks, and a failed upload
// stops before the patient document is created.
func (s *Service) RegisterPatient(ctx context.Context, userID string, form model.PatientForm) (*model.Patient, error) {
	values, fieldErrs := s.schema.ValidatePatient(form)
	if len(fieldErrs) > 0 {
		return nil, errors.Validation(fieldErrs)
	}

	if len(values.IdentificationDocument) > 0 {
		checked, err := s.checkFile(values.IdentificationDocument[0])
		if err != nil {
			return nil, err
		}
		values.IdentificationDocument[0] = checked
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to get user", "user_id", userID)
		}
		return nil, errors.FromGateway("user", "failed to register patient", err)
	}

	record := model.ToPatientRecord(values, *user)

	var stored *model.StoredFile
	if record.IdentificationDocument != nil {
		stored, err = s.files.UploadFile(ctx, s.cfg.BucketID, *record.IdentificationDocument)
		if err != nil {
			s.log.Error(err, "failed to upload identification document", "user_id", userID)
			s.rejectUpload("transport")
			return nil, errors.Upload("failed to upload identification document", err)
		}
	}

	patient, err := s.repo.CreatePatient(ctx, record, stored)
	if err != nil {
		s.log.Error(err, "failed to create patient", "user_id", userID)
		return nil, errors.FromGateway("patient", "failed to register patient", err)
	}

	s.log.Info("patient registered", "user_id", userID, "patient_id", patient.ID)
	return patient, nil
}

// checkFile enforces the size limit and replaces the client-declared
// content type with the sniffed one.
func (s *Service) checkFile(file model.File) (model.File, error) {
	size := file.Size
	if n := int64(len(file.Data)); n > size {
		size = n
	}
	if size > s.cfg.MaxFileSize {
		s.rejectUpload("too_large")
		return file, errors.Upload(
			fmt.Sprintf("identification document must be at most %d MB", s.cfg.MaxFileSize/(1024*1024)),
			errors.ErrFileTooLarge,
		)
	}

	detected := mimetype.Detect(file.Data)
	if !mimetype.EqualsAny(detected.String(), AllowedContentTypes...) {
		s.rejectUpload("unsupported_type")
		return file, errors.Upload(
			fmt.Sprintf("identification document type %s is not supported", detected.String()),
			errors.ErrUnsupportedFileType,
		)
	}

	file.ContentType = detected.String()
	file.Size = int64(len(file.Data))
	return file, nil
}

func (s *Service) rejectUpload(reason string) {
	if s.metrics != nil {
		s.metrics.UploadsRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Service) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	patient, err := s.repo.GetPatientByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to get patient", "user_id", userID)
		}
		return nil, errors.FromGateway("patient", "failed to get patient", err)
	}
	return patient, nil
}
