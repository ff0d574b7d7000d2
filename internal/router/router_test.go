package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/handler/admin"
	"github.com/jwalitptl/intake-api/internal/handler/appointment"
	"github.com/jwalitptl/intake-api/internal/handler/file"
	"github.com/jwalitptl/intake-api/internal/handler/form"
	"github.com/jwalitptl/intake-api/internal/handler/health"
	"github.com/jwalitptl/intake-api/internal/handler/patient"
	"github.com/jwalitptl/intake-api/internal/handler/prometheus"
	"github.com/jwalitptl/intake-api/internal/handler/user"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	appointmentsvc "github.com/jwalitptl/intake-api/internal/service/appointment"
	patientsvc "github.com/jwalitptl/intake-api/internal/service/patient"
	usersvc "github.com/jwalitptl/intake-api/internal/service/user"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func setup(t *testing.T) (*gin.Engine, *memory.Gateway) {
	t.Helper()
	log := logger.Nop()
	reg := prom.NewRegistry()
	m := metrics.New("intake", reg)

	gw := memory.New()
	schema := validation.NewSchema(validator.New(validator.WithPhysicians(model.PhysicianNames(model.DefaultPhysicians))), "")

	handlers := Handlers{
		Health:      health.NewHandler(okPinger{}, 0),
		Form:        form.NewHandler(model.DefaultPhysicians),
		User:        user.NewHandler(usersvc.NewService(gw, schema, log)),
		Patient:     patient.NewHandler(patientsvc.NewService(gw, gw, gw, schema, patientsvc.Config{BucketID: "bucket"}, log, m)),
		Appointment: appointment.NewHandler(appointmentsvc.NewService(gw, gw, schema, nil, log)),
		Admin: admin.NewHandler(
			appointmentsvc.NewService(gw, gw, schema, nil, log),
			middleware.NewAuthMiddleware(nil),
			middleware.NewAuditMiddleware(log),
		),
		File: file.NewHandler(gw),
	}

	r := NewRouter(handlers, prometheus.New(reg, m), log, RouterConfig{
		Mode:        gin.TestMode,
		RateLimiter: middleware.RateLimiterConfig{},
		Metrics:     m,
	})
	r.Setup()
	return r.Engine(), gw
}

func TestHealthCarriesRequestIDAndSecurityHeaders(t *testing.T) {
	r, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestPatientRoutesAreNotCached(t *testing.T) {
	r, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/u-1/patient", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestAdminRoutesRejectedWithoutPasskeyConfigured(t *testing.T) {
	r, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	req.Header.Set(middleware.HeaderAdminPasskey, "123456")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func registrationBody(t *testing.T, document []byte) (*bytes.Buffer, string) {
	t.Helper()
	fields := map[string]string{
		"name": "John Doe", "email": "john@x.com", "phone": "+254700000000",
		"birthDate": "1990-01-01", "gender": "Male", "address": "14 Moi Avenue, Nairobi",
		"occupation": "Engineer", "emergencyContactName": "Jane Doe", "emergencyContactNumber": "+254711222333",
		"primaryPhysician": "John Green", "identificationType": "Passport", "identificationNumber": "A1234567",
		"privacyConsent": "true", "treatmentConsent": "true", "disclosureConsent": "true",
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(patient.FileField, "id.png")
	require.NoError(t, err)
	_, err = part.Write(document)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestOversizedDocumentThroughFullStack(t *testing.T) {
	r, gw := setup(t)
	u, err := gw.CreateUser(context.Background(), model.NewUser{Name: "John Doe", Email: "john@x.com", Phone: "+254700000000"})
	require.NoError(t, err)

	body, ct := registrationBody(t, make([]byte, 6<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/patients", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, gw.FileCount())
}

func TestDocumentURLIsServed(t *testing.T) {
	r, gw := setup(t)
	u, err := gw.CreateUser(context.Background(), model.NewUser{Name: "John Doe", Email: "john@x.com", Phone: "+254700000000"})
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	body, ct := registrationBody(t, png)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/patients", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data model.Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Data.IdentificationDocumentURL)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, *env.Data.IdentificationDocumentURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, png, w.Body.Bytes())
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `path="/api/v1/health/live"`))
}
