// Package v1 provides the public HTTP handlers for datachat.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/service"
)

// HealthStatus is reported by GET /health.
const HealthStatus = "Nuralance Operational"

// Client-facing error details.
const (
	detailInvalidFileType  = "Invalid file type. Please upload a CSV file."
	detailSessionNotFound  = "Session not initialized. Please upload a CSV file first."
	detailRunTimeout       = "Assistant run timed out. Please try again."
	detailUploadFailed     = "Failed to process CSV file: "
	detailChatFailed       = "An error occurred in the chat handler: "
	detailSessionIDMissing = "session_id is required"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Session setup and chat
	e.POST("/upload-csv", h.UploadCSV)
	e.POST("/chatbot/message", h.ChatMessage)

	// Session management
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.DELETE("/v1/sessions/:session_id", h.DeleteSession)

	// Journal
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)
	e.GET("/v1/sessions/:session_id/events", h.GetSessionEvents)
	e.GET("/v1/runs/:run_id/events", h.GetRunEvents)
	e.GET("/v1/runs/:run_id/tool_calls", h.GetRunToolCalls)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": HealthStatus,
	})
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, domain.ErrorResponse{Detail: msg})
}

// sessionError maps session lookup failures shared by several endpoints.
func sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return detail(c, http.StatusNotFound, detailSessionNotFound)
	case errors.Is(err, domain.ErrInvalidRequest):
		return detail(c, http.StatusBadRequest, err.Error())
	default:
		return detail(c, http.StatusInternalServerError, err.Error())
	}
}
