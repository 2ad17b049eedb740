package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// ChatMessage runs one chat turn against an uploaded session.
// POST /chatbot/message
func (h *Handler) ChatMessage(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return detail(c, http.StatusBadRequest, detailSessionIDMissing)
	}
	if strings.TrimSpace(req.Message) == "" {
		return detail(c, http.StatusBadRequest, "message is required")
	}

	reply, err := h.service.Chat(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		var runErr *domain.RunFailedError
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			return detail(c, http.StatusNotFound, detailSessionNotFound)
		case errors.Is(err, domain.ErrInvalidRequest):
			return detail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRunTimeout):
			return detail(c, http.StatusGatewayTimeout, detailRunTimeout)
		case errors.As(err, &runErr):
			return detail(c, http.StatusInternalServerError, runErr.Detail())
		default:
			return detail(c, http.StatusInternalServerError, detailChatFailed+err.Error())
		}
	}

	return c.JSON(http.StatusOK, domain.ChatResponse{Response: reply})
}
