package upload

import (
	"errors"
	"net/http"

	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/abduss/atomupload/internal/presigned"
	"github.com/gin-gonic/gin"
)

const (
	formField         = "file"
	defaultFormMemory = 32 << 20
)

// Handler serves multipart uploads through a Pipeline.
type Handler struct {
	pipeline   *Pipeline
	formMemory int64
}

// NewHandler builds a handler. formMemory caps the bytes buffered in memory
// while parsing the form; larger files spill to temporary files.
func NewHandler(pipeline *Pipeline, formMemory int64) *Handler {
	if formMemory <= 0 {
		formMemory = defaultFormMemory
	}
	return &Handler{pipeline: pipeline, formMemory: formMemory}
}

// RegisterRoutes mounts POST /upload.
func RegisterRoutes(group gin.IRoutes, h *Handler) {
	group.POST("/upload", h.Upload)
}

// Upload reads the "file" form part and runs it through the pipeline.
func (h *Handler) Upload(c *gin.Context) {
	policy := h.pipeline.Policy()

	if err := c.Request.ParseMultipartForm(h.formMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": policy.MissingFileMessage})
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	headers := form.File[formField]
	if len(headers) == 0 {
		// A part named "file" with an empty filename is parsed as a value.
		if _, ok := form.Value[formField]; ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": policy.MissingFileMessage})
		return
	}

	header := headers[0]
	content, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer content.Close()

	result, err := h.pipeline.Process(c.Request.Context(), Request{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     content,
		Logger:      logger.FromContext(c, h.pipeline.log),
	})
	if err != nil {
		status, message := errorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	body := gin.H{
		"message":         "File uploaded successfully",
		"bucket":          result.Object.Bucket,
		"filename":        result.Object.Key,
		"event_published": result.EventPublished,
	}
	if policy.IssueSignedURL {
		body["signed_url"] = result.SignedURL
	}
	if policy.IncludeMetadata {
		body["metadata"] = result.Announcement
	}
	c.JSON(http.StatusOK, body)
}

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrEmptyFilename):
		return http.StatusBadRequest, "No file selected"
	case errors.Is(err, ErrExtensionNotAllowed):
		return http.StatusBadRequest, "File type not allowed"
	case errors.Is(err, file.ErrStorageWrite):
		return http.StatusInternalServerError, "Error uploading to GCS: " + err.Error()
	case errors.Is(err, presigned.ErrURLIssuance):
		return http.StatusInternalServerError, "Error generating signed URL: " + err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
