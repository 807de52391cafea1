package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

type jdEmbeddingRequest struct {
	Text string `json:"text"`
}

// Match runs the aggregator over pre-embedded job description sentences.
func (h *Handler) Match(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req matching.MatchRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.matchSvc.Match(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "match_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MatchText embeds raw job description text and returns a full report.
func (h *Handler) MatchText(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req matching.MatchTextRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.matchSvc.MatchText(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "match_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReport returns an archived match report owned by the caller.
func (h *Handler) GetReport(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reportID := strings.TrimSpace(c.Param("id"))

	report, err := h.matchSvc.GetReport(c.Request.Context(), userID, reportID)
	if err != nil {
		abortWithError(c, fromDomainError(err, "report_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// EmbedJobDescription returns the whole-text and per-sentence embeddings of a job description.
func (h *Handler) EmbedJobDescription(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req jdEmbeddingRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.matchSvc.EmbedJobDescription(c.Request.Context(), req.Text)
	if err != nil {
		abortWithError(c, fromDomainError(err, "embedding_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IndexResume embeds and stores resume blocks for the caller.
func (h *Handler) IndexResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req matching.IndexRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.matchSvc.IndexResume(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "index_failed"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ImportNotion pulls resume blocks from a Notion database and indexes them.
func (h *Handler) ImportNotion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req matching.NotionImportRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.matchSvc.ImportNotion(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "import_failed"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}
