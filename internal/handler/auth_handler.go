package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Send(c, http.StatusOK, h.service.Login(c.Request.Context(), req))
}
