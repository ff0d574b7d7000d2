package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/service/user"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

type Handler struct {
	service user.UserServicer
}

func NewHandler(service user.UserServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/:userId", h.GetUser)
	}
}

// CreateUser answers 201 for a new user and 200 when the email was already
// registered.
func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	u, created, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.RespondWithStatus(c, status, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.service.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}
