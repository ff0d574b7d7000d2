package memory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/errors"
)

// Gateway keeps everything in process memory. It backs development runs and
// service tests.
type Gateway struct {
	mu           sync.RWMutex
	users        map[string]model.User
	emails       map[string]string
	patients     map[string]model.Patient
	userPatients map[string]string
	files        map[string]model.File
	appointments map[string]model.Appointment
	order        []string
	physicians   []model.Physician
	now          func() time.Time
}

type Option func(*Gateway)

// WithPhysicians seeds the doctor collection.
func WithPhysicians(physicians []model.Physician) Option {
	return func(g *Gateway) {
		g.physicians = append([]model.Physician(nil), physicians...)
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

func New(opts ...Option) *Gateway {
	g := &Gateway{
		users:        make(map[string]model.User),
		emails:       make(map[string]string),
		patients:     make(map[string]model.Patient),
		userPatients: make(map[string]string),
		files:        make(map[string]model.File),
		appointments: make(map[string]model.Appointment),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	_ repository.Gateway    = (*Gateway)(nil)
	_ repository.FileReader = (*Gateway)(nil)
)

func (g *Gateway) base() model.Base {
	now := g.now()
	return model.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

func (g *Gateway) CreateUser(ctx context.Context, user model.NewUser) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := g.emails[key]; taken {
		return nil, fmt.Errorf("create user %s: %w", user.Email, errors.ErrConflict)
	}

	u := model.User{Base: g.base(), Name: user.Name, Email: user.Email, Phone: user.Phone}
	g.users[u.ID] = u
	g.emails[key] = u.ID
	return &u, nil
}

func (g *Gateway) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, errors.ErrNotFound)
	}
	return &u, nil
}

func (g *Gateway) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.emails[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("find user %s: %w", email, errors.ErrNotFound)
	}
	u := g.users[id]
	return &u, nil
}

func (g *Gateway) CreatePatient(ctx context.Context, record model.PatientRecord, file *model.StoredFile) (*model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	p := model.Patient{Base: g.base(), PatientRecord: record}
	if file != nil {
		id, url := file.ID, file.URL
		p.IdentificationDocumentID = &id
		p.IdentificationDocumentURL = &url
	}

	g.patients[p.ID] = p
	if _, exists := g.userPatients[record.UserID]; !exists {
		g.userPatients[record.UserID] = p.ID
	}
	return &p, nil
}

func (g *Gateway) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.userPatients[userID]
	if !ok {
		return nil, fmt.Errorf("get patient for user %s: %w", userID, errors.ErrNotFound)
	}
	p := g.patients[id]
	return &p, nil
}

func (g *Gateway) UploadFile(ctx context.Context, bucketID string, file model.File) (*model.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.NewString()
	g.files[bucketID+"/"+id] = file
	return &model.StoredFile{
		ID:          id,
		BucketID:    bucketID,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		URL:         fileURL(bucketID, id),
	}, nil
}

func (g *Gateway) GetFile(ctx context.Context, bucketID, fileID string) (*model.StoredFile, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	file, ok := g.files[bucketID+"/"+fileID]
	if !ok {
		return nil, nil, fmt.Errorf("file %s: %w", fileID, errors.ErrNotFound)
	}
	return &model.StoredFile{
		ID:          fileID,
		BucketID:    bucketID,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		URL:         fileURL(bucketID, fileID),
	}, append([]byte(nil), file.Data...), nil
}

// fileURL matches the download route the API mounts for this backend.
func fileURL(bucketID, fileID string) string {
	return fmt.Sprintf("/api/v1/files/%s/%s", url.PathEscape(bucketID), url.PathEscape(fileID))
}

// FileCount reports how many files have been stored.
func (g *Gateway) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.files)
}

// PatientCount reports how many patient documents have been stored.
func (g *Gateway) PatientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.patients)
}

func (g *Gateway) CreateAppointment(ctx context.Context, record model.AppointmentRecord) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	a := model.Appointment{Base: g.base(), AppointmentRecord: record}
	g.appointments[a.ID] = a
	g.order = append(g.order, a.ID)
	return &a, nil
}

func (g *Gateway) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, ok := g.appointments[id]
	if !ok {
		return nil, fmt.Errorf("get appointment %s: %w", id, errors.ErrNotFound)
	}
	return &a, nil
}

func (g *Gateway) UpdateAppointment(ctx context.Context, id string, update model.AppointmentUpdate) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.appointments[id]
	if !ok {
		return nil, fmt.Errorf("update appointment %s: %w", id, errors.ErrNotFound)
	}
	a.AppointmentRecord = update.Apply(a.AppointmentRecord)
	a.UpdatedAt = g.now()
	g.appointments[id] = a
	return &a, nil
}

func (g *Gateway) ListAppointments(ctx context.Context, limit int) ([]*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*model.Appointment, 0, len(g.order))
	for i := len(g.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		a := g.appointments[g.order[i]]
		out = append(out, &a)
	}
	return out, nil
}

func (g *Gateway) ListPhysicians(ctx context.Context) ([]model.Physician, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]model.Physician(nil), g.physicians...), nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (g *Gateway) Close() error {
	return nil
}
