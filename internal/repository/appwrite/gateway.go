package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/errors"
)

const uniqueID = "unique()"

var _ repository.Gateway = (*Client)(nil)

func (c *Client) CreateUser(ctx context.Context, user model.NewUser) (*model.User, error) {
	r, err := c.jsonRequest("create_user", http.MethodPost, "/users", map[string]string{
		"userId": uniqueID,
		"email":  user.Email,
		"phone":  user.Phone,
		"name":   user.Name,
	})
	if err != nil {
		return nil, err
	}

	var out model.User
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	seg, err := segment(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var out model.User
	r := request{op: "get_user", method: http.MethodGet, path: "/users/" + seg}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var out struct {
		Total int          `json:"total"`
		Users []model.User `json:"users"`
	}
	r := request{op: "list_users", method: http.MethodGet, path: "/users", query: queries(equal("email", email))}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("find user by email: %w", errors.ErrNotFound)
	}
	return &out.Users[0], nil
}

type patientDocument struct {
	model.PatientRecord
	IdentificationDocumentID  *string `json:"identificationDocumentId"`
	IdentificationDocumentURL *string `json:"identificationDocumentUrl"`
}

func (c *Client) CreatePatient(ctx context.Context, record model.PatientRecord, file *model.StoredFile) (*model.Patient, error) {
	doc := patientDocument{PatientRecord: record}
	if file != nil {
		id, url := file.ID, file.URL
		doc.IdentificationDocumentID = &id
		doc.IdentificationDocumentURL = &url
	}

	r, err := c.jsonRequest("create_patient", http.MethodPost, c.documentsPath(c.cfg.PatientCollectionID), map[string]interface{}{
		"documentId": uniqueID,
		"data":       doc,
	})
	if err != nil {
		return nil, err
	}

	var out model.Patient
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return &out, nil
}

func (c *Client) GetPatientByUserID(ctx context.Context, userID string) (*model.Patient, error) {
	var out struct {
		Total     int             `json:"total"`
		Documents []model.Patient `json:"documents"`
	}
	r := request{
		op:     "get_patient",
		method: http.MethodGet,
		path:   c.documentsPath(c.cfg.PatientCollectionID),
		query:  queries(equal("userId", userID)),
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to get patient for user %s: %w", userID, err)
	}
	if len(out.Documents) == 0 {
		return nil, fmt.Errorf("get patient for user %s: %w", userID, errors.ErrNotFound)
	}
	return &out.Documents[0], nil
}

func (c *Client) UploadFile(ctx context.Context, bucketID string, file model.File) (*model.StoredFile, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("fileId", uniqueID); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	r := request{
		op:          "upload_file",
		method:      http.MethodPost,
		path:        fmt.Sprintf("/storage/buckets/%s/files", url.PathEscape(bucketID)),
		body:        &body,
		contentType: w.FormDataContentType(),
	}

	var out model.StoredFile
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	out.BucketID = bucketID
	out.URL = c.FileURL(bucketID, out.ID)
	return &out, nil
}

// appointmentDocument accepts the patient relationship either as an id or
// as the expanded patient document.
type appointmentDocument struct {
	model.Appointment
	Patient json.RawMessage `json:"patient"`
}

func (d appointmentDocument) toModel() (*model.Appointment, error) {
	a := d.Appointment
	if len(d.Patient) == 0 || string(d.Patient) == "null" {
		return &a, nil
	}
	if d.Patient[0] == '"' {
		if err := json.Unmarshal(d.Patient, &a.PatientID); err != nil {
			return nil, err
		}
		return &a, nil
	}
	var ref struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(d.Patient, &ref); err != nil {
		return nil, err
	}
	a.PatientID = ref.ID
	return &a, nil
}

func (c *Client) CreateAppointment(ctx context.Context, record model.AppointmentRecord) (*model.Appointment, error) {
	r, err := c.jsonRequest("create_appointment", http.MethodPost, c.documentsPath(c.cfg.AppointmentCollectionID), map[string]interface{}{
		"documentId": uniqueID,
		"data":       record,
	})
	if err != nil {
		return nil, err
	}

	var out appointmentDocument
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return out.toModel()
}

func (c *Client) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	seg, err := segment(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	var out appointmentDocument
	r := request{op: "get_appointment", method: http.MethodGet, path: c.documentsPath(c.cfg.AppointmentCollectionID) + "/" + seg}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, err)
	}
	return out.toModel()
}

func (c *Client) UpdateAppointment(ctx context.Context, id string, update model.AppointmentUpdate) (*model.Appointment, error) {
	seg, err := segment(id)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	data := map[string]interface{}{"status": update.Status}
	if update.Schedule != nil {
		data["schedule"] = update.Schedule.Format(time.RFC3339)
	}
	if update.PrimaryPhysician != nil {
		data["primaryPhysician"] = *update.PrimaryPhysician
	}
	if update.CancellationReason != nil {
		data["cancellationReason"] = *update.CancellationReason
	}

	r, err := c.jsonRequest("update_appointment", http.MethodPatch, c.documentsPath(c.cfg.AppointmentCollectionID)+"/"+seg, map[string]interface{}{
		"data": data,
	})
	if err != nil {
		return nil, err
	}

	var out appointmentDocument
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	return out.toModel()
}

func (c *Client) ListAppointments(ctx context.Context, n int) ([]*model.Appointment, error) {
	qs := []query{orderDesc("$createdAt")}
	if n > 0 {
		qs = append(qs, limit(n))
	}

	var out struct {
		Total     int                   `json:"total"`
		Documents []appointmentDocument `json:"documents"`
	}
	r := request{op: "list_appointments", method: http.MethodGet, path: c.documentsPath(c.cfg.AppointmentCollectionID), query: queries(qs...)}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	appointments := make([]*model.Appointment, 0, len(out.Documents))
	for _, d := range out.Documents {
		a, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("failed to decode appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

func (c *Client) ListPhysicians(ctx context.Context) ([]model.Physician, error) {
	if c.cfg.DoctorCollectionID == "" {
		return nil, nil
	}

	var out struct {
		Total     int               `json:"total"`
		Documents []model.Physician `json:"documents"`
	}
	r := request{op: "list_physicians", method: http.MethodGet, path: c.documentsPath(c.cfg.DoctorCollectionID), query: queries(limit(100))}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to list physicians: %w", err)
	}
	return out.Documents, nil
}

// SendSMS sends content to the user's phone through the messaging API.
func (c *Client) SendSMS(ctx context.Context, userID, content string) error {
	r, err := c.jsonRequest("send_sms", http.MethodPost, "/messaging/messages/sms", map[string]interface{}{
		"messageId": uniqueID,
		"content":   content,
		"users":     []string{userID},
	})
	if err != nil {
		return err
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	return nil
}
