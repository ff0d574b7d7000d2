package repository

import (
	"context"

	"github.com/jwalitptl/intake-api/internal/model"
)

// All gateway interfaces in one file. Implementations wrap
// errors.ErrNotFound and errors.ErrConflict so callers can test with errors.Is.
type (
	UserRepository interface {
		// CreateUser fails with errors.ErrConflict when the email is taken.
		CreateUser(ctx context.Context, user model.NewUser) (*model.User, error)
		GetUser(ctx context.Context, id string) (*model.User, error)
		FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	}

	PatientRepository interface {
		// CreatePatient stores record. file is nil when no document was uploaded.
		CreatePatient(ctx context.Context, record model.PatientRecord, file *model.StoredFile) (*model.Patient, error)
		GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error)
	}

	FileStorage interface {
		UploadFile(ctx context.Context, bucketID string, file model.File) (*model.StoredFile, error)
	}

	// FileReader is implemented by backends that keep file contents
	// themselves and serve them through the API.
	FileReader interface {
		GetFile(ctx context.Context, bucketID, fileID string) (*model.StoredFile, []byte, error)
	}

	AppointmentRepository interface {
		CreateAppointment(ctx context.Context, record model.AppointmentRecord) (*model.Appointment, error)
		GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
		UpdateAppointment(ctx context.Context, id string, update model.AppointmentUpdate) (*model.Appointment, error)
		// ListAppointments returns the newest appointments first.
		ListAppointments(ctx context.Context, limit int) ([]*model.Appointment, error)
	}

	PhysicianRepository interface {
		ListPhysicians(ctx context.Context) ([]model.Physician, error)
	}

	// Gateway is the full persistence surface of one backend
	Gateway interface {
		UserRepository
		PatientRepository
		FileStorage
		AppointmentRepository
		PhysicianRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
