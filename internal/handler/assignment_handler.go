package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// AssignmentHandler exposes homework endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List returns assignments, filterable by allocation.
func (h *AssignmentHandler) List(c *gin.Context) {
	var filter models.AssignmentFilter
	filter.AllocationID = c.Query("allocation_id")
	filter.Page, filter.PageSize = pagingFromQuery(c)
	sendPage(c, h.service.List(c.Request.Context(), filter))
}

// Get returns one assignment.
func (h *AssignmentHandler) Get(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Get(c.Request.Context(), c.Param("id")))
}

// Create publishes an assignment under an allocation the caller owns.
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), identityFromContext(c), req))
}

// Update rewrites an assignment the caller owns.
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req service.UpdateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusOK, h.service.Update(c.Request.Context(), identityFromContext(c), c.Param("id"), req))
}

// Delete removes an assignment the caller owns.
func (h *AssignmentHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), identityFromContext(c), c.Param("id")))
}
