package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/domain/tailor"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	matchSvc  matching.Service
	tailorSvc tailor.Service
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(matchSvc matching.Service, tailorSvc tailor.Service, logger *slog.Logger) *Handler {
	return &Handler{
		matchSvc:  matchSvc,
		tailorSvc: tailorSvc,
		logger:    logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}
