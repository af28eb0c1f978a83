package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// ClassHandler exposes class CRUD endpoints.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List returns classes, filterable by grade and search keyword.
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter
	filter.Grade = c.Query("grade")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pagingFromQuery(c)
	sendPage(c, h.service.List(c.Request.Context(), filter))
}

// Get returns one class.
func (h *ClassHandler) Get(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Get(c.Request.Context(), c.Param("id")))
}

// Create adds a class.
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), req))
}

// Update rewrites a class.
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusOK, h.service.Update(c.Request.Context(), c.Param("id"), req))
}

// Delete removes a class.
func (h *ClassHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), c.Param("id")))
}
