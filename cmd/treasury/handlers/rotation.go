package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mtaadao/treasury/cmd/treasury/service"
)

// RotationHandler handles rotation-related requests
type RotationHandler struct {
	rotation *service.RotationService
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(rotation *service.RotationService) *RotationHandler {
	return &RotationHandler{
		rotation: rotation,
	}
}

// GetStatus returns a fund's rotation state and cycle history
// GET /api/v1/funds/:fundId/rotation/status
func (h *RotationHandler) GetStatus(c echo.Context) error {
	fundID, err := uuid.Parse(c.Param("fundId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fund id")
	}

	report, err := h.rotation.Status(c.Request().Context(), fundID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, report)
}

// Process triggers a rotation tick for the fund
// POST /api/v1/funds/:fundId/rotation/process
func (h *RotationHandler) Process(c echo.Context) error {
	fundID, err := uuid.Parse(c.Param("fundId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fund id")
	}

	result, err := h.rotation.ProcessDue(c.Request().Context(), fundID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// NextRecipient previews the upcoming selection without mutating state
// GET /api/v1/funds/:fundId/rotation/next-recipient
func (h *RotationHandler) NextRecipient(c echo.Context) error {
	fundID, err := uuid.Parse(c.Param("fundId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fund id")
	}

	preview, err := h.rotation.PreviewNextRecipient(c.Request().Context(), fundID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, preview)
}
