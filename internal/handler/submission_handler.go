package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// SubmissionHandler exposes student answer endpoints.
type SubmissionHandler struct {
	service *service.SubmissionService
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Create hands in the caller's answer to an assignment.
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req service.CreateSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), identityFromContext(c), req))
}

// ListByAssignment returns all submissions for an assignment the caller
// teaches.
func (h *SubmissionHandler) ListByAssignment(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.ListByAssignment(c.Request.Context(), identityFromContext(c), c.Param("id")))
}

// Grade scores a submission.
func (h *SubmissionHandler) Grade(c *gin.Context) {
	var req service.GradeSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	response.SendEmpty(c, h.service.Grade(c.Request.Context(), identityFromContext(c), c.Param("id"), req))
}

// Delete withdraws a submission.
func (h *SubmissionHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), identityFromContext(c), c.Param("id")))
}
