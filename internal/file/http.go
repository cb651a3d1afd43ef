package file

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ledgerLister interface {
	List(ctx context.Context, limit int) ([]LedgerEntry, error)
}

// RegisterRoutes mounts the upload ledger listing.
func RegisterRoutes(group gin.IRoutes, ledger ledgerLister) {
	handler := &httpHandler{ledger: ledger}
	group.GET("/uploads", handler.listUploads)
}

type httpHandler struct {
	ledger ledgerLister
}

func (h *httpHandler) listUploads(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	entries, err := h.ledger.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": entries})
}
