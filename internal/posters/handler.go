// Package posters issues upload targets for event poster images.
package posters

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/pkg/response"
	"github.com/volunteer-connect/backend/pkg/storage"
)

// Storage is the poster object store.
type Storage interface {
	PresignPosterUpload(ctx context.Context, key, contentType string) (string, error)
	PresignExpire() time.Duration
	UploadPoster(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	PublicObjectURL(key string) string
}

// UploadURLRequest is the body for POST /api/events/poster-upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize" binding:"required,gt=0"`
}

// Handler handles poster upload endpoints. A nil store disables them.
type Handler struct {
	store  Storage
	logger *zap.Logger
}

// NewHandler creates a poster handler.
func NewHandler(store Storage, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// UploadURL handles POST /api/events/poster-upload-url: a presigned PUT for a direct browser upload.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Poster uploads are not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	contentType, msg := checkPoster(req.ContentType, req.Filename, req.FileSize)
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}

	actor := middleware.MustActor(c)
	key := storage.PosterKey(actor.ID, req.Filename, contentType)
	url, err := h.store.PresignPosterUpload(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("generate presigned upload URL failed", zap.Error(err), zap.Int64("user_id", actor.ID), zap.String("key", key))
		response.Internal(c, "Poster upload unavailable")
		return
	}

	response.OK(c, gin.H{
		"uploadUrl":   url,
		"posterKey":   key,
		"posterUrl":   h.store.PublicObjectURL(key),
		"contentType": contentType,
		"expiresIn":   int(h.store.PresignExpire().Seconds()),
	})
}

// Upload handles POST /api/events/poster: the server streams the multipart file to storage.
func (h *Handler) Upload(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Poster uploads are not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxPosterFileSize+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	contentType, msg := checkPoster(file.Header.Get("Content-Type"), file.Filename, file.Size)
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}

	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	actor := middleware.MustActor(c)
	key := storage.PosterKey(actor.ID, file.Filename, contentType)
	url, err := h.store.UploadPoster(c.Request.Context(), key, contentType, rc)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.Int64("user_id", actor.ID), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	response.Created(c, gin.H{
		"posterKey":   key,
		"posterUrl":   url,
		"contentType": contentType,
		"fileSize":    file.Size,
	})
}

// checkPoster validates an upload and returns the content type to store it under,
// or a client-facing message when the upload is rejected.
func checkPoster(contentType, filename string, size int64) (string, string) {
	if size > storage.MaxPosterFileSize {
		return "", "file size exceeds 5MB limit"
	}
	if !storage.ValidatePosterType(contentType, filename) {
		return "", "invalid file type: only jpg, png, webp and gif images are allowed"
	}
	if contentType != "" {
		return contentType, ""
	}
	return storage.ContentTypeForFilename(filename), ""
}
