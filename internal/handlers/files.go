package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/filestore"
)

// uploadOverhead is the multipart framing allowed on top of the file itself.
const uploadOverhead = 64 << 10

type FileHandler struct {
	files  store.FileStore
	bucket store.Bucket
}

func NewFileHandler(files store.FileStore, bucket store.Bucket) *FileHandler {
	return &FileHandler{files: files, bucket: bucket}
}

// UploadFile stores a question attachment from the multipart field "file"
func (h *FileHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bucket.MaxFileSize+uploadOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > h.bucket.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	info, err := h.files.CreateFile(c.Request.Context(), h.bucket.ID, "", header.Filename, f)
	switch {
	case err == nil:
	case errors.Is(err, filestore.ErrExtensionRejected), errors.Is(err, filestore.ErrContentRejected):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	case errors.Is(err, filestore.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fileId": info.ID, "file": info})
}

// GetFile streams an attachment back
func (h *FileHandler) GetFile(c *gin.Context) {
	rc, info, err := h.files.OpenFile(c.Request.Context(), h.bucket.ID, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.MIMEType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", info.Name),
	})
}
