package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/jobfit/internal/domain/tailor"
)

// StartTailor queues a resume tailoring job and returns its request id.
func (h *Handler) StartTailor(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req tailor.Request
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.tailorSvc.Start(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "tailor_failed"))
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// TailorStatus returns the folded progress state of a tailoring job.
func (h *Handler) TailorStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, err := h.tailorSvc.Status(c.Request.Context(), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		abortWithError(c, fromDomainError(err, "progress_failed"))
		return
	}
	c.JSON(http.StatusOK, state)
}

// TailorEvents streams progress frames using Server-Sent Events until the job ends
// or the client disconnects.
func (h *Handler) TailorEvents(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	frames, err := h.tailorSvc.Events(c.Request.Context(), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		abortWithError(c, fromDomainError(err, "progress_failed"))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming unsupported", nil))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher.Flush()

	for frame := range frames {
		payload, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("encode progress frame", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			h.logger.Warn("write progress frame", "error", err)
			return
		}
		flusher.Flush()
	}
}
