package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/middleware"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func identityFromContext(c *gin.Context) authz.Identity {
	claims := claimsFromContext(c)
	if claims == nil {
		return authz.Identity{}
	}
	return authz.Identity{UserID: claims.UserID, Role: claims.Role}
}

// bindJSON decodes the body into dest, answering a validation failure on
// malformed payloads. Returns false when the response was already written.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Failure(c, result.Validation("INVALID_PAYLOAD", "request body is not valid JSON"), nil)
		return false
	}
	return true
}

func pagingFromQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

func sendPage[T any](c *gin.Context, r result.Result[service.Page[T]]) {
	if !r.Succeeded() {
		response.Failure(c, r.Err(), r.FieldErrors())
		return
	}
	page := r.Value()
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}
