// Package response translates operation results into the HTTP envelope.
// Dispatch happens on the error kind taxonomy, never on description text.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *ErrorPayload      `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// ErrorPayload is the structured failure surface: a title, a machine-readable
// code, a human description, and field errors for validation failures.
type ErrorPayload struct {
	Title       string         `json:"title"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Errors      []result.Error `json:"errors,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Pagination: pagination})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Send renders a result: the payload with the given status on success, the
// mapped error envelope otherwise.
func Send[T any](c *gin.Context, okStatus int, r result.Result[T]) {
	if r.Succeeded() {
		JSON(c, okStatus, r.Value(), nil)
		return
	}
	Failure(c, r.Err(), r.FieldErrors())
}

// SendEmpty renders a payload-free result as 204 on success.
func SendEmpty(c *gin.Context, r result.Empty) {
	if r.Succeeded() {
		NoContent(c)
		return
	}
	Failure(c, r.Err(), r.FieldErrors())
}

// Failure writes the error envelope for a kind-tagged error.
func Failure(c *gin.Context, e result.Error, fields []result.Error) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(statusOf(e.Kind), Envelope{Error: &ErrorPayload{
		Title:       titleOf(e.Kind),
		Code:        e.Code,
		Description: e.Description,
		Errors:      fields,
	}})
}

func statusOf(k result.Kind) int {
	switch k {
	case result.KindValidation:
		return http.StatusBadRequest
	case result.KindNotFound:
		return http.StatusNotFound
	case result.KindConflict:
		return http.StatusConflict
	case result.KindUnauthorized:
		return http.StatusUnauthorized
	case result.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func titleOf(k result.Kind) string {
	switch k {
	case result.KindValidation:
		return "Validation Error"
	case result.KindNotFound:
		return "Not Found"
	case result.KindConflict:
		return "Conflict"
	case result.KindUnauthorized:
		return "Unauthorized"
	case result.KindForbidden:
		return "Forbidden"
	default:
		return "Bad Request"
	}
}
