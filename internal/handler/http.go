// Package handler exposes the HTTP surface of the conversion service.
package handler

import (
	"errors"
	"net/url"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/convert"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/metadata"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/resp"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/storage"
)

// Handler handles conversion HTTP requests.
type Handler struct {
	svc    *convert.Service
	files  *storage.FilesystemAdapter // serves /direct-download; nil when storage is remote-only
	logger *logging.Logger
}

// New creates a handler.
func New(svc *convert.Service, files *storage.FilesystemAdapter, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.StdLogger()
	}
	return &Handler{svc: svc, files: files, logger: log}
}

// RequestID tags every request with a trace id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.Use(RequestID())

	r.GET("/api/info", h.Info)
	r.GET("/api/download", h.Download)
	r.GET("/api/progress/:id", h.Progress)
	r.GET("/direct-download/:filename", h.DirectDownload)

	r.GET("/health", func(c *gin.Context) {
		resp.Success(c.Writer, map[string]string{"status": "healthy"})
	})
}

// Info returns best-effort video metadata for a URL.
func (h *Handler) Info(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		resp.Fail(c.Writer, resp.BadRequest("URL is required"))
		return
	}

	meta, err := h.svc.Info(c.Request.Context(), rawURL)
	if err != nil {
		if errors.Is(err, metadata.ErrInvalidSource) {
			resp.Fail(c.Writer, resp.BadRequest("Invalid YouTube URL"))
			return
		}
		resp.Fail(c.Writer, resp.InternalServer("Failed to retrieve video information"))
		return
	}

	resp.Success(c.Writer, meta)
}

// Download starts an asynchronous conversion job and returns its id.
func (h *Handler) Download(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		resp.Fail(c.Writer, resp.BadRequest("URL is required"))
		return
	}
	format := c.DefaultQuery("format", "mp3")

	jobID, err := h.svc.Submit(c.Request.Context(), rawURL, format)
	if err != nil {
		if errors.Is(err, metadata.ErrInvalidSource) {
			resp.Fail(c.Writer, resp.BadRequest("Invalid YouTube URL"))
			return
		}
		h.logger.Error(c.Request.Context(), "failed to start download", "error", err)
		resp.Fail(c.Writer, resp.InternalServer("Download failed"))
		return
	}

	resp.Success(c.Writer, map[string]string{"downloadId": jobID})
}

// Progress reports the job's current record, defaulting to the pending
// sentinel for unknown ids so early pollers never see an error.
func (h *Handler) Progress(c *gin.Context) {
	rec, err := h.svc.Poll(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error(c.Request.Context(), "failed to read progress", "error", err)
		resp.Fail(c.Writer, resp.InternalServer("Failed to retrieve progress information"))
		return
	}
	resp.Success(c.Writer, rec)
}

// DirectDownload streams a locally stored artifact as an attachment.
func (h *Handler) DirectDownload(c *gin.Context) {
	if h.files == nil {
		resp.Fail(c.Writer, resp.NotFound("File not found"))
		return
	}

	name, err := url.PathUnescape(c.Param("filename"))
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest("Invalid file name"))
		return
	}
	name = filepath.Base(name)

	exists, err := h.files.Exists(c.Request.Context(), name)
	if err != nil || !exists {
		resp.Fail(c.Writer, resp.NotFound("File not found"))
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.File(filepath.Join(h.files.Root(), name))
}
