package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// ListSessions lists live sessions.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": h.service.ListSessions(),
	})
}

// GetSession describes a live session.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	summary, err := h.service.GetSession(c.Param("session_id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// DeleteSession tears down a session and its files.
// DELETE /v1/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	if err := h.service.DeleteSession(c.Request().Context(), sessionID); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": sessionID,
		"status":     "deleted",
	})
}

// GetSessionMessages retrieves journaled messages for a session. Messages
// outlive the session itself, so deleted sessions can still be replayed.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("session_id")
	limit := queryInt(c, "limit", 50)

	messages, err := h.service.GetMessages(c.Request().Context(), sessionID, limit)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": limit > 0 && len(messages) == limit, // Approximate
	})
}

// GetSessionEvents retrieves session-level and run-level trace events.
// GET /v1/sessions/:session_id/events
func (h *Handler) GetSessionEvents(c echo.Context) error {
	events, err := h.service.GetSessionEvents(c.Request().Context(), c.Param("session_id"), queryInt(c, "limit", 200))
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// GetRunEvents retrieves events for a run.
// GET /v1/runs/:run_id/events?after_ts=&types=a,b&limit=
func (h *Handler) GetRunEvents(c echo.Context) error {
	runID := c.Param("run_id")
	limit := queryInt(c, "limit", 100)
	afterTs := int64(0)
	if t := c.QueryParam("after_ts"); t != "" {
		if val, err := strconv.ParseInt(t, 10, 64); err == nil {
			afterTs = val
		}
	}
	var types []string
	if raw := c.QueryParam("types"); raw != "" {
		types = splitList(raw)
	}

	events, err := h.service.GetRunEvents(c.Request().Context(), runID, afterTs, types, limit)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// GetRunToolCalls retrieves the tool calls executed during a run.
// GET /v1/runs/:run_id/tool_calls
func (h *Handler) GetRunToolCalls(c echo.Context) error {
	calls, err := h.service.GetRunToolCalls(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tool_calls": calls,
	})
}

func queryInt(c echo.Context, name string, def int) int {
	if raw := c.QueryParam(name); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val >= 0 {
			return val
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
