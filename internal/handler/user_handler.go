package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// UserHandler exposes account management endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List returns accounts. Pass active=true to hide deactivated accounts.
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if role := strings.ToUpper(c.Query("role")); role != "" {
		userRole := models.UserRole(role)
		filter.Role = &userRole
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ActiveOnly = c.Query("active") == "true"
	filter.Page, filter.PageSize = pagingFromQuery(c)
	sendPage(c, h.service.List(c.Request.Context(), filter))
}

// Get returns one account.
func (h *UserHandler) Get(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Get(c.Request.Context(), c.Param("id")))
}

// Create registers an account.
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusCreated, h.service.Create(c.Request.Context(), req))
}

// Update rewrites an account's profile.
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusOK, h.service.Update(c.Request.Context(), c.Param("id"), req))
}

// Deactivate soft-deletes an account.
func (h *UserHandler) Deactivate(c *gin.Context) {
	response.SendEmpty(c, h.service.Deactivate(c.Request.Context(), c.Param("id")))
}
