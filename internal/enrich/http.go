package enrich

import (
	"errors"
	"io"
	"net/http"

	"github.com/abduss/atomupload/internal/event"
	"github.com/gin-gonic/gin"
)

const maxEnvelopeBytes = 1 << 20

// RegisterRoutes mounts the Pub/Sub push endpoint. Any non-2xx response
// makes the broker redeliver according to its own policy.
func RegisterRoutes(group gin.IRoutes, consumer *Consumer) {
	handler := &httpHandler{consumer: consumer}
	group.POST("/pubsub/push", handler.push)
}

type httpHandler struct {
	consumer *Consumer
}

func (h *httpHandler) push(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEnvelopeBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if err := h.consumer.HandleEnvelope(c.Request.Context(), body); err != nil {
		switch {
		case errors.Is(err, event.ErrMalformedEnvelope), errors.Is(err, event.ErrMalformedAnnouncement):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
