package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// SubjectHandler exposes subject CRUD endpoints.
type SubjectHandler struct {
	service *service.SubjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List returns subjects, filterable by search keyword.
func (h *SubjectHandler) List(c *gin.Context) {
	var filter models.SubjectFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pagingFromQuery(c)
	sendPage(c, h.service.List(c.Request.Context(), filter))
}

// Get returns one subject.
func (h *SubjectHandler) Get(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Get(c.Request.Context(), c.Param("id")))
}

// Create adds a subject.
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.SubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), req))
}

// Update rewrites a subject.
func (h *SubjectHandler) Update(c *gin.Context) {
	var req service.SubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusOK, h.service.Update(c.Request.Context(), c.Param("id"), req))
}

// Delete removes a subject.
func (h *SubjectHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), c.Param("id")))
}
