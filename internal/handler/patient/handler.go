package patient

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/service/patient"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

// FileField is the multipart part carrying the identification document
const FileField = "identificationDocument"

type Handler struct {
	service patient.PatientServicer
}

func NewHandler(service patient.PatientServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users/:userId")
	{
		users.POST("/patients", h.RegisterPatient)
		users.GET("/patient", h.GetPatient)
	}
}

// RegisterPatient accepts the form as JSON or as multipart/form-data with
// the document in the identificationDocument part. Any userId in the body
// is ignored; the path names the user.
func (h *Handler) RegisterPatient(c *gin.Context) {
	form, err := h.bindForm(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	p, err := h.service.RegisterPatient(c.Request.Context(), c.Param("userId"), form)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.service.GetPatientByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) bindForm(c *gin.Context) (model.PatientForm, error) {
	var form model.PatientForm

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := handler.BindJSON(c, &form); err != nil {
			return form, err
		}
		// JSON cannot carry file contents.
		if len(form.IdentificationDocument) > 0 {
			return form, errors.Validation(map[string]string{
				FileField: "Upload the identification document as multipart/form-data",
			})
		}
		return form, nil
	}

	if err := c.ShouldBind(&form); err != nil {
		return form, errors.Validation(map[string]string{"body": "Request body must be a valid form"})
	}

	fieldErrs := map[string]string{}
	for field, dst := range map[string]**bool{
		"privacyConsent":    &form.PrivacyConsent,
		"treatmentConsent":  &form.TreatmentConsent,
		"disclosureConsent": &form.DisclosureConsent,
	} {
		value, ok := c.GetPostForm(field)
		if !ok {
			continue
		}
		consent, err := parseConsent(value)
		if err != nil {
			fieldErrs[field] = "Must be true or false"
			continue
		}
		*dst = &consent
	}
	if len(fieldErrs) > 0 {
		return form, errors.Validation(fieldErrs)
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return form, errors.Validation(map[string]string{"body": "Request body must be a valid form"})
	}
	for _, fh := range mf.File[FileField] {
		file, err := readFile(fh)
		if err != nil {
			return form, errors.Upload("failed to read identification document", err)
		}
		form.IdentificationDocument = append(form.IdentificationDocument, file)
	}
	return form, nil
}

// parseConsent reads a form flag. HTML checkboxes post "on" when ticked.
func parseConsent(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func readFile(fh *multipart.FileHeader) (model.File, error) {
	f, err := fh.Open()
	if err != nil {
		return model.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return model.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}
