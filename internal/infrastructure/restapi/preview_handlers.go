package restapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio_preview/internal/connector"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/pkg/metrics"
)

// PreviewHandler serves import preview requests by dispatching to the
// registered source adapters.
type PreviewHandler struct {
	registry *connector.Registry
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(registry *connector.Registry) *PreviewHandler {
	return &PreviewHandler{registry: registry}
}

// PostPreviewHandler handles POST /api/v1/preview. The response is always a
// PreviewResult; fatal failures are reported inside it with ok:false rather
// than as bare HTTP errors.
func (h *PreviewHandler) PostPreviewHandler(c *gin.Context) {
	var req entity.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result := entity.Failed(entity.ErrMalformedJSON, fmt.Sprintf("failed to parse request body: %v", err))
		metrics.PreviewsTotal.WithLabelValues("unknown", "error").Inc()
		c.JSON(http.StatusBadRequest, result)
		return
	}

	conn, ok := h.registry.Get(req.ConnectorID)
	if !ok {
		result := entity.Failed(entity.ErrUnknownConnector, fmt.Sprintf("unknown connector_id: %q", req.ConnectorID))
		metrics.PreviewsTotal.WithLabelValues("unknown", "error").Inc()
		c.JSON(http.StatusBadRequest, result)
		return
	}

	result := conn.Preview(c.Request.Context(), req)
	outcome := "ok"
	if !result.OK {
		outcome = "error"
	}
	metrics.PreviewsTotal.WithLabelValues(conn.ID(), outcome).Inc()

	c.JSON(http.StatusOK, result)
}
