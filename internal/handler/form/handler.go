package form

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

// Handler serves the static form descriptors the client renders from
type Handler struct {
	patient model.PatientFormDescriptor
}

// NewHandler builds the descriptors once; the physician directory is
// fixed for the life of the process.
func NewHandler(physicians []model.Physician) *Handler {
	return &Handler{patient: model.NewPatientFormDescriptor(physicians)}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	forms := r.Group("/forms")
	forms.Use(middleware.Cache(middleware.DefaultCacheConfig()))
	{
		forms.GET("/patient", h.GetPatientForm)
	}
}

func (h *Handler) GetPatientForm(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.patient)
}
