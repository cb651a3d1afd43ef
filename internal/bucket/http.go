package bucket

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the routing table listing onto the router.
func RegisterRoutes(group gin.IRoutes, classifier *Classifier) {
	handler := &httpHandler{classifier: classifier}
	group.GET("/buckets", handler.listBuckets)
}

type httpHandler struct {
	classifier *Classifier
}

func (h *httpHandler) listBuckets(c *gin.Context) {
	c.JSON(http.StatusOK, h.classifier.Listing())
}
