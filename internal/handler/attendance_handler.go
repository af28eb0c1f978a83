package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
)

// AttendanceHandler exposes the attendance marking and session endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark records statuses for an allocation on a date, creating the session
// on first use.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	r := h.service.Mark(c.Request.Context(), req)
	if !r.Succeeded() {
		response.Failure(c, r.Err(), r.FieldErrors())
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"session_id": r.Value()}, nil)
}

// Update moves a session's date and re-marks records.
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req service.UpdateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.SessionID = c.Param("id")
	response.SendEmpty(c, h.service.Update(c.Request.Context(), identityFromContext(c), req))
}

// Delete removes a session and its records.
func (h *AttendanceHandler) Delete(c *gin.Context) {
	response.SendEmpty(c, h.service.Delete(c.Request.Context(), identityFromContext(c), c.Param("id")))
}

// Recap returns a session with its records.
func (h *AttendanceHandler) Recap(c *gin.Context) {
	response.Send(c, http.StatusOK, h.service.Recap(c.Request.Context(), c.Param("id")))
}

// Export streams the session recap as a PDF or CSV download.
func (h *AttendanceHandler) Export(c *gin.Context) {
	r := h.service.ExportRecap(c.Request.Context(), c.Param("id"), c.Query("format"))
	if !r.Succeeded() {
		response.Failure(c, r.Err(), r.FieldErrors())
		return
	}
	file := r.Value()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
