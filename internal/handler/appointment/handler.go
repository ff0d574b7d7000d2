package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/service/appointment"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

type Handler struct {
	service appointment.AppointmentServicer
}

func NewHandler(service appointment.AppointmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/users/:userId/appointments", h.CreateAppointment)
	r.GET("/appointments/:appointmentId", h.GetAppointment)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var form model.AppointmentForm
	if err := handler.BindJSON(c, &form); err != nil {
		handler.Fail(c, err)
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), c.Param("userId"), form)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, a)
}

// GetAppointment renders the schedule in the timeZone query parameter, or
// the default zone when none is given.
func (h *Handler) GetAppointment(c *gin.Context) {
	view, err := h.service.GetAppointment(c.Request.Context(), c.Param("appointmentId"), c.Query("timeZone"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}
