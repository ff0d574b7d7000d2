package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondWithSuccess sends a 200 response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusOK, data)
}

// RespondWithStatus sends a success response with the given status code
func RespondWithStatus(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError maps err onto a status code and sends an error response.
// Messages of internal errors never reach the client.
func RespondWithError(c *gin.Context, err error) {
	code := StatusOf(err)

	resp := Response{
		Status:  "error",
		Message: http.StatusText(code),
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Kind != errors.KindInternal {
		resp.Message = appErr.Message
		resp.Errors = appErr.Fields
	}

	c.AbortWithStatusJSON(code, resp)
}

// StatusOf returns the HTTP status for err
func StatusOf(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindConflict:
		return http.StatusConflict
	case errors.KindUpload:
		switch {
		case errors.Is(err, errors.ErrFileTooLarge):
			return http.StatusRequestEntityTooLarge
		case errors.Is(err, errors.ErrUnsupportedFileType):
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadGateway
	case errors.KindPersistence:
		return http.StatusBadGateway
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
