package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxUploadBytes caps hero image uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// MediaStore is the storage surface behind the upload endpoint.
type MediaStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

type Handler struct {
	store MediaStore
	log   zerolog.Logger
}

func New(store MediaStore, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Upload accepts a multipart "file" field and returns the stored object's
// public URL.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	url, err := h.store.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.log.Error().Err(err).Msg("media: upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// Register mounts the upload route; the caller attaches the admin-tier gate.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/admin/media", h.Upload)
}
