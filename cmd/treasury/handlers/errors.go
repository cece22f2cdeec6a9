package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// httpError maps domain errors to HTTP status codes. Unknown errors pass
// through for echo's recover/error middleware to report as 500s.
func httpError(err error) error {
	switch {
	case errors.Is(err, models.ErrFundNotFound),
		errors.Is(err, models.ErrProposalNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, models.ErrMemberNotFound),
		errors.Is(err, models.ErrNotAuthorized),
		errors.Is(err, models.ErrNotEligibleSigner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())

	case errors.Is(err, models.ErrInvalidQuorumSize),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrNotRotationFund):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrDailyLimitExceeded),
		errors.Is(err, models.ErrPolicyViolation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, models.ErrProposalNotPending),
		errors.Is(err, models.ErrProposalExpired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, models.ErrNoEligibleMembers):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	default:
		return err
	}
}
