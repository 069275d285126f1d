package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"smarttasks/internal/repository"
	"smarttasks/internal/service"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
	}
}

// ListAttachments handles GET /api/tasks/:id/attachments
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	page, size := pagingFrom(c)

	result, err := h.attachmentService.ListByTask(c.Request.Context(), tenantID, c.Param("id"), page, size)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadAttachment handles POST /api/tasks/:id/attachments, multipart form
// with a "file" field.
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	if header.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	a, err := h.attachmentService.Upload(c.Request.Context(), tenantID, c.Param("id"), header.Filename, mimeType, header.Size, f)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachment"})
		return
	}

	c.JSON(http.StatusCreated, a)
}

// DownloadAttachment handles GET /api/attachments/:id/download and streams
// the payload back with its original name and type.
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	dl, err := h.attachmentService.OpenDownload(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open attachment"})
		return
	}
	defer dl.Content.Close()

	encodedName := strings.ReplaceAll(url.QueryEscape(dl.OriginalName), "+", "%20")
	c.Header("Content-Disposition", `attachment; filename="`+encodedName+`"`)
	c.Header("Content-Length", strconv.FormatInt(dl.Size, 10))
	c.DataFromReader(http.StatusOK, dl.Size, dl.MimeType, dl.Content, nil)
}
