package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/service/appointment"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

// PasskeyRequest is the body of a passkey check
type PasskeyRequest struct {
	Passkey string `json:"passkey"`
}

type Handler struct {
	appointments appointment.AppointmentServicer
	auth         *middleware.AuthMiddleware
	audit        *middleware.AuditMiddleware
}

func NewHandler(appointments appointment.AppointmentServicer, auth *middleware.AuthMiddleware, audit *middleware.AuditMiddleware) *Handler {
	return &Handler{
		appointments: appointments,
		auth:         auth,
		audit:        audit,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.POST("/passkey", h.VerifyPasskey)

	appointments := admin.Group("/appointments")
	appointments.Use(h.auth.RequireAdmin(), h.audit.AuditLog("appointment"))
	{
		appointments.GET("", h.ListAppointments)
		appointments.PATCH("/:appointmentId", h.UpdateAppointment)
	}
}

// VerifyPasskey lets the dashboard check a passkey before storing it.
func (h *Handler) VerifyPasskey(c *gin.Context) {
	var req PasskeyRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	if err := h.auth.Verify(req.Passkey); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"valid": true})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handler.Fail(c, errors.Validation(map[string]string{"limit": "Limit must be a positive number"}))
			return
		}
		limit = n
	}

	list, err := h.appointments.ListRecent(c.Request.Context(), limit)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	var req model.UpdateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	a, err := h.appointments.UpdateAppointment(c.Request.Context(), c.Param("appointmentId"), req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}
