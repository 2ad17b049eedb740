package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/service"
)

// UploadCSV turns an uploaded CSV file into a chat session.
// POST /upload-csv (multipart: session_id, csv_file)
func (h *Handler) UploadCSV(c echo.Context) error {
	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		return detail(c, http.StatusBadRequest, detailSessionIDMissing)
	}
	file, err := c.FormFile("csv_file")
	if err != nil {
		return detail(c, http.StatusBadRequest, "csv_file is required")
	}
	if !service.IsCSVFilename(file.Filename) {
		return detail(c, http.StatusBadRequest, detailInvalidFileType)
	}

	src, err := file.Open()
	if err != nil {
		return detail(c, http.StatusInternalServerError, detailUploadFailed+err.Error())
	}
	defer src.Close()

	resp, err := h.service.Upload(c.Request().Context(), sessionID, file.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileType):
			return detail(c, http.StatusBadRequest, detailInvalidFileType)
		case errors.Is(err, domain.ErrInvalidRequest):
			return detail(c, http.StatusBadRequest, err.Error())
		default:
			return detail(c, http.StatusInternalServerError, detailUploadFailed+err.Error())
		}
	}

	return c.JSON(http.StatusOK, resp)
}
