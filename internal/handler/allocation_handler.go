package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// AllocationHandler exposes teacher-class-subject binding endpoints.
type AllocationHandler struct {
	service *service.AllocationService
}

// NewAllocationHandler constructs an allocation handler.
func NewAllocationHandler(svc *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{service: svc}
}

// List returns allocations, filterable by teacher, class and subject.
func (h *AllocationHandler) List(c *gin.Context) {
	var filter models.AllocationFilter
	filter.TeacherID = c.Query("teacher_id")
	filter.ClassID = c.Query("class_id")
	filter.SubjectID = c.Query("subject_id")
	filter.Page, filter.PageSize = pagingFromQuery(c)
	sendPage(c, h.service.List(c.Request.Context(), filter))
}

// Get returns one allocation.
func (h *AllocationHandler) Get(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Get(c.Request.Context(), c.Param("id")))
}

// Create binds a teacher to a class and subject.
func (h *AllocationHandler) Create(c *gin.Context) {
	var req service.CreateAllocationRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), req))
}

// Delete removes an allocation.
func (h *AllocationHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), c.Param("id")))
}
