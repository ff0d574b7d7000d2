package file

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/errors"
)

// Handler serves stored identification documents for backends that keep
// file contents themselves
type Handler struct {
	files repository.FileReader
}

func NewHandler(files repository.FileReader) *Handler {
	return &Handler{files: files}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/files/:bucketId/:fileId", h.GetFile)
}

// GetFile always downloads as an attachment with the type sniffed at upload.
func (h *Handler) GetFile(c *gin.Context) {
	stored, data, err := h.files.GetFile(c.Request.Context(), c.Param("bucketId"), c.Param("fileId"))
	if err != nil {
		handler.Fail(c, errors.FromGateway("file", "failed to get file", err))
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": stored.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, stored.ContentType, data)
}
